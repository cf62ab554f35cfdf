// Package integrations maps package components onto the directory layouts
// of the supported AI coding tools. The default Translator resolves a
// deterministic target path for each component and renders its content,
// mostly as a pass-through, with small per-tool adjustments such as Cursor
// rule front matter and normalized MCP server JSON.
package integrations
