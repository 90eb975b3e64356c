// Package yamlfile reads and writes pipeline files in YAML.
//
//	name: segment
//	steps:
//	  - type: create_data_array
//	    label: Create Phases
//	    params:
//	      path: DC/Cell/Phases
//	      type: int32
//	      component_dims: [1]
package yamlfile
