// Package render defines the renderer contract shared by the HTML and
// terminal renderers, the registry used to pick one per request, and helpers
// for hidden identifying inputs and submission error mapping.
package render
