package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
)

func runPack(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "Input template file")
	out := fs.String("out", "", "Output file; the extension picks the format and .sz compresses")
	key := fs.String("key", "", "Template key <template>/<network>, when the input does not declare one")
	check := fs.Bool("check", true, "Build the network before writing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("pack: -in and -out are required")
	}

	format, compressed, err := anatomyspec.DetectFormat(*out)
	if err != nil {
		return err
	}

	doc, err := anatomyspec.ParseFile(*in)
	if err != nil {
		return err
	}
	if err := bindKey(doc, *in, *key); err != nil {
		return err
	}

	if *check {
		if _, err := doc.Build(); err != nil {
			return err
		}
	} else if err := doc.Validate(); err != nil {
		return err
	}

	data, err := anatomyspec.Marshal(doc, format)
	if err != nil {
		return err
	}
	raw := len(data)
	if compressed {
		data = anatomyspec.Pack(data)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s: %d declarations, %d bytes (%d uncompressed)\n", *out, doc.Count(), len(data), raw)
	return nil
}
