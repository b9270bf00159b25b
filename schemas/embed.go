// Package schemas holds the JSON Schemas for the artifacts the link planner writes.
package schemas

import _ "embed"

// LinkReportFile is the schema file name, relative to this directory.
const LinkReportFile = "link_report.schema.json"

// LinkReport is the JSON Schema of types.LinkReport.
//
//go:embed link_report.schema.json
var LinkReport string
