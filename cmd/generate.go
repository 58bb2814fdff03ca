package main

//go:generate echo "Generating templ files..."
//go:generate bash -c "export PATH=$$PATH:~/go/bin && templ generate -path ../views"
//go:generate echo "templ files generated"

// This file contains go:generate directives that turn the .templ views into
// Go code. Run
//
// go generate ./...
//
// from the project root after editing any .templ file.
