// Package jsonfile reads and writes pipeline files in the JSON layout used by
// legacy pipeline tools:
//
//	{
//	  "PipelineBuilder": {"Name": "segment", "Number_Filters": 1, "Version": "1"},
//	  "0": {
//	    "Filter_Name": "create_data_array",
//	    "Filter_Uuid": "{1b3a5f0e-...}",
//	    "Filter_Human_Label": "Create Phases",
//	    "Filter_Enabled": true,
//	    "path": "DC/Cell/Phases"
//	  }
//	}
//
// Files may contain comments and trailing commas. Every key of a filter
// object that does not start with "Filter_" is a step parameter.
package jsonfile
