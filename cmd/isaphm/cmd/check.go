package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/report"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <input>",
	Short: "Checks the given experiment description for errors and reports them. No output is written.",
	Long: `The check command loads and converts the given wizard JSON document or input workbook in
memory and reports every error and warning found. With --verbose the converted studies, assays
and their processes are shown as well. It will not write any files.`,
	Args: cobra.ExactArgs(1),
	Run:  cliCmdCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("format", "F", "", "Input format (json or xlsx), by default taken from the file extension")
	checkCmd.Flags().BoolP("verbose", "v", false, "Show the converted investigation")
}

func cliCmdCheck(cmd *cobra.Command, args []string) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		fmt.Println("error", err)
		os.Exit(1)
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Println("error", err)
		os.Exit(1)
	}

	// The warnings are listed below, they don't need logging as well.
	investigation, diagnostics, ok := loadAndConvert(appFs, cmd.OutOrStdout(), io.Discard, args[0], format)
	if !ok {
		os.Exit(1)
	}

	if diagnostics.Len() != 0 {
		fmt.Printf("%d warnings:\n", diagnostics.Len())
		for _, diagnostic := range diagnostics.Items() {
			fmt.Println(" ", diagnostic)
		}
	}

	fmt.Println(report.Summarize(investigation))

	if verbose {
		if err := report.NewDisplayer(cmd.OutOrStdout()).Apply(investigation); err != nil {
			fmt.Println("error", err)
			os.Exit(1)
		}
	}
}
