// Package scan locates the GML metadata block inside a JPEG 2000 container.
//
// The container is treated as an opaque byte stream split into raw lines.
// Three sequential searches run over the buffered lines:
//
//	1. the first three lines must contain a JP2-family signature
//	2. the first line holding any start marker (gml.data, gxml, fxml)
//	3. the first line holding the end marker (uuid), searched from the top
//
// The result is a half-open line range [Start, End). Start >= End is a hard
// failure reported as model.ErrBoundaryNotFound.
package scan
