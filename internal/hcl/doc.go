// Package hcl reads and writes pipeline files in HCL:
//
//	pipeline "segment" {
//	  step "create_data_array" "Create Phases" {
//	    path           = "DC/Cell/Phases"
//	    type           = "int32"
//	    component_dims = [1]
//	    init_value     = 0
//	  }
//	}
//
// Every attribute of a step block other than enabled and uuid becomes a step
// parameter. Expressions may call a small set of cty standard functions
// (upper, lower, format, join, concat, min, max, abs, floor, ceil).
package hcl
