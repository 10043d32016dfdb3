package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/Skufu/HepatoScan/internal/artifact"
	"github.com/Skufu/HepatoScan/internal/catalog"
	"github.com/Skufu/HepatoScan/internal/diagnosis"
	"github.com/Skufu/HepatoScan/internal/features"
	"github.com/Skufu/HepatoScan/internal/model"
)

// askFunc returns the raw answer for one field.
type askFunc func(f features.Field) (string, error)

func main() {
	if err := run(os.Args[1:], os.Stdout, surveyAsk); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			os.Exit(130)
		}
		log.Fatalf("hepatoscan: %v", err)
	}
}

func run(args []string, out io.Writer, ask askFunc) error {
	fs := flag.NewFlagSet("hepatoscan-cli", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("artifacts", "artifacts", "directory holding the scaler and model artifacts")
	scalerName := fs.String("scaler", "scaler.json", "scaler artifact name")
	modelName := fs.String("model", "model.json", "classifier artifact name")
	categories := fs.String("categories", "", "optional category table override (YAML)")
	useDefaults := fs.Bool("defaults", false, "skip prompts and use the default values")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	predictor, err := model.Load(context.Background(), artifact.Dir{Root: *dir}, *scalerName, *modelName, model.Options{
		ONNXLibraryPath: os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"),
	})
	if err != nil {
		return err
	}
	defer predictor.Close()

	cat, err := catalog.Default()
	if *categories != "" {
		cat, err = catalog.LoadFile(*categories)
	}
	if err != nil {
		return err
	}
	if err := cat.CheckLabels(predictor.Classes()); err != nil {
		return err
	}

	v := features.Defaults()
	if !*useDefaults {
		v, err = collect(ask)
		if err != nil {
			return err
		}
	}

	result, err := diagnosis.NewService(predictor, cat).Run(v)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(out, result)
	return nil
}

func collect(ask askFunc) (features.Vector, error) {
	answers := make(map[string]string, features.Count)
	for _, f := range features.Fields() {
		raw, err := ask(f)
		if err != nil {
			return features.Vector{}, err
		}
		answers[f.Name] = raw
	}
	return features.FromValues(func(name string) (string, bool) {
		raw, ok := answers[name]
		return raw, ok
	})
}

func printResult(out io.Writer, r diagnosis.Result) {
	fmt.Fprintln(out, "Prediction Result")
	fmt.Fprintf(out, "### %s\n", r.Name)
	fmt.Fprintf(out, "Description: %s\n", r.Description)
	fmt.Fprintf(out, "Precautions: %s\n", r.Precautions)
	fmt.Fprintf(out, "Image: %s\n", r.ImageURL)
}

func promptMessage(f features.Field) string {
	if f.Kind == features.KindNumeric && f.Name != "age" {
		return fmt.Sprintf("%s (%s)", f.Label, f.RangeLabel())
	}
	return f.Label
}

// fieldValidator keeps answers inside the field's bounds.
func fieldValidator(f features.Field) survey.Validator {
	return func(ans interface{}) error {
		s, ok := ans.(string)
		if !ok {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%s must be a number", f.Label)
		}
		if !f.Accepts(v) {
			return fmt.Errorf("%s must be within %s", f.Label, f.RangeLabel())
		}
		return nil
	}
}

func surveyAsk(f features.Field) (string, error) {
	var answer string
	if f.Kind == features.KindBinary {
		prompt := &survey.Select{
			Message: f.Label,
			Options: []string{features.SexLabel(0), features.SexLabel(1)},
			Default: features.SexLabel(f.Default),
		}
		err := survey.AskOne(prompt, &answer)
		return answer, err
	}

	prompt := &survey.Input{
		Message: promptMessage(f),
		Default: strconv.FormatFloat(f.Default, 'f', -1, 64),
	}
	err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required), survey.WithValidator(fieldValidator(f)))
	return answer, err
}
