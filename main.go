package main

import (
	"github.com/fhoech/allura2wpxml/src/exporter"
	_ "github.com/fhoech/allura2wpxml/src/sample"
)

func main() {
	exporter.ExportCommand.Execute()
}
