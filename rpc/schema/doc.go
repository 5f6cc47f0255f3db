// Package schema loads message descriptors from HCL schema files. The
// described messages have no Go struct behind them: instances are dynamic,
// map-backed *Message values that report their schema name through
// TypeName, so the factory resolves their descriptor by that name.
//
// Schema format:
//
//	message "geo.Point" {
//	  field "x" {
//	    type    = "int32"
//	    number  = 1
//	    default = 7
//	  }
//	  field "origin" {
//	    type    = "message"
//	    number  = 2
//	    message = "geo.Point"
//	  }
//	}
//
// Field types are the names of descriptor.FieldType (case-insensitive).
// Messages may reference any message of the same file, including themselves.
// Defaults are converted from HCL values with cty, bytes defaults are strings.
//
// Usage:
//
//	descs, err := schema.LoadFile("geo.hcl")
//	point, _ := schema.New(descs[0])
//	_ = point.Set("x", int32(3))
//	data, err := factory.Serialize(f, point, "json")
package schema
