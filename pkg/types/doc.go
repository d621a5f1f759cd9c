// Package types defines the WidgetStore interface, the Widget entity, page
// bounds for list reads, and the standard errors of the canvas service.
package types
