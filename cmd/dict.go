package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/diameter"
	"firestige.xyz/dissect/internal/diameter/dictionary"
)

var (
	dictFile   string
	dictStrict bool
)

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Inspect Diameter dictionaries",
}

var dictValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a dictionary definitions file",
	Long: `Build a dictionary from a YAML definitions file and report every
entry that would be skipped. Without -f the embedded dictionary is checked.

Examples:
  dissect dict validate -f vendor.yaml
  dissect dict validate -f vendor.yaml --strict`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDictValidate(cmd.OutOrStdout(), dictFile, dictStrict)
	},
}

var dictVendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List the vendors of a dictionary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDictVendors(cmd.OutOrStdout(), dictFile)
	},
}

func init() {
	dictCmd.PersistentFlags().StringVarP(&dictFile, "file", "f", "",
		"dictionary YAML (embedded dictionary when empty)")
	dictValidateCmd.Flags().BoolVar(&dictStrict, "strict", false,
		"fail when any entry is skipped")

	dictCmd.AddCommand(dictValidateCmd)
	dictCmd.AddCommand(dictVendorsCmd)
}

func runDictValidate(w io.Writer, path string, strict bool) error {
	defs, err := dictionary.ReadDefinitions(path)
	if err != nil {
		fmt.Fprintf(w, "INVALID: %v\n", err)
		return err
	}
	dict, warnings := diameter.Build(defs)
	if dict == nil {
		fmt.Fprintf(w, "INVALID: %v\n", core.ErrDictionaryUnavailable)
		return core.ErrDictionaryUnavailable
	}
	for _, warn := range warnings {
		fmt.Fprintf(w, "SKIPPED: %v\n", warn)
	}
	vendors, apps, attrs := dict.Stats()
	fmt.Fprintf(w, "VALID: %d vendor(s), %d application(s), %d attribute(s), %d skipped\n",
		vendors, apps, attrs, len(warnings))
	if strict && len(warnings) > 0 {
		return fmt.Errorf("%w: %d entries skipped", core.ErrMalformedDefinition, len(warnings))
	}
	return nil
}

func runDictVendors(w io.Writer, path string) error {
	dict, err := dictionary.Load(path)
	if err != nil {
		return err
	}
	for _, v := range dict.Vendors() {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%d attribute(s)\n", v.ID, v.Name, len(v.Attributes)); err != nil {
			return err
		}
	}
	return nil
}
