/*
Package config manages configuration parsing and validation for constify.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |           |           |
	+-----+-----+ +---+----+ +----+----+
	|   YAML    | |  JSON  | |   HCL   |
	| Parser    | | Parser | | Parser  |
	+-----------+ +--------+ +---------+

🎯 Purpose:
- Loads run settings from YAML, JSON, or HCL files
- Applies defaults matching the CLI flag surface
- Validates values before any file is touched
- Maps the dry-run/backup switches onto a commit policy

🔄 Flow:
1. Reads configuration from file (optional; flags alone suffice)
2. Parses format-specific syntax via the registered parsers
3. Applies defaults and validates
4. Hands the validated config to cmd/constify for flag overrides
*/
package config
