package main

import (
	"context"
	"go/format"
	"log"
	"os"
	"time"

	"github.com/delaneyj/deepstate/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const (
	packageKey = "package"
	nameKey    = "name"
	fieldsKey  = "fields"
	outKey     = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate a typed view over an observable object",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  packageKey,
				Usage: "Package of the generated file",
				Value: "models",
			},
			&cli.StringFlag{
				Name:     nameKey,
				Usage:    "Name of the view type",
				Required: true,
			},
			&cli.StringFlag{
				Name:     fieldsKey,
				Usage:    "Comma separated name:type list (string, bool, int, int64, float64, any)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Output file, stdout when empty",
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	name := cmd.String(nameKey)
	log.Printf("Codegen for %s started", name)
	defer func() {
		log.Printf("Codegen for %s finished in %v", name, time.Since(start))
	}()

	fields, err := templates.ParseFields(cmd.String(fieldsKey))
	if err != nil {
		return err
	}
	contents := templates.ViewGen(templates.View{
		Package: cmd.String(packageKey),
		Name:    name,
		Fields:  fields,
	})
	formatted, err := format.Source([]byte(contents))
	if err != nil {
		return err
	}

	out := cmd.String(outKey)
	if out == "" {
		_, err := os.Stdout.Write(formatted)
		return err
	}
	return os.WriteFile(out, formatted, 0644)
}
