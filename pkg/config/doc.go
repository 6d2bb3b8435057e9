/*
Package config loads a build description from a file.

	            +-------------+
	            |   Config    |
	            |  (a build)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Lets Makefiles and CI steps describe a build without writing Go
- Turns the description into a build.Builder

🔄 Flow:
1. The parser is chosen by file extension
2. Values are decoded; YAML and JSON expand $VAR, HCL reads env.<NAME>
3. Relative paths are resolved against the config file's directory
4. env_file is read as a dotenv file; explicit env entries win
5. Validate rejects configs that cannot run

📝 YAML:

	target_directory: ${OUT_DIR}/web
	release: true
	copy_all: true
	exclude: ["coverage"]
	install: true
	env_file: .env.production
	scripts:
	  - name: build
	    args: ["--", "--minify"]

📝 HCL:

	target_directory = "${env.OUT_DIR}/web"
	release          = true
	copy_all         = true
	install          = true

	script "build" {
	  args = ["--", "--minify"]
	}

Steps always run copy_all, copy, install, then scripts in listed order.
*/
package config
