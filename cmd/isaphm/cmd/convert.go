package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa/isatab"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/output"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Converts an experiment description to ISA-JSON, and optionally ISA-Tab and an Excel workbook.",
	Long: `The convert command reads the given wizard JSON document or input workbook and writes
the resulting ISA investigation as ISA-JSON to <output>. With --isatab the ISA-Tab files are
written to the given directory, with --xlsx they are also written as sheets of a workbook.
Nothing is written when the input cannot be converted.`,
	Args: cobra.ExactArgs(2),
	Run:  cliCmdConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("format", "F", "", "Input format (json or xlsx), by default taken from the file extension")
	convertCmd.Flags().StringP("isatab", "t", "", "Directory to write the ISA-Tab files to")
	convertCmd.Flags().StringP("xlsx", "x", "", "Path of an Excel workbook to write the ISA-Tab files to")
	convertCmd.Flags().IntP("indent", "i", 0, "Spaces to indent the ISA-JSON with, 0 writes compact JSON")
	convertCmd.Flags().String("encoding", "", "Text encoding of the ISA-Tab files: utf-8 or windows-1252")
	convertCmd.Flags().Bool("package", false, "Put study and assay files in Studies and Assays folders")
	convertCmd.Flags().String("missing-factor-value", "", "Value for study variables without a value for a run")

	_ = viper.BindPFlag(keyIndent, convertCmd.Flags().Lookup("indent"))
	_ = viper.BindPFlag(keyTabEncoding, convertCmd.Flags().Lookup("encoding"))
	_ = viper.BindPFlag(keyPackage, convertCmd.Flags().Lookup("package"))
	_ = viper.BindPFlag(keyMissingFactorValue, convertCmd.Flags().Lookup("missing-factor-value"))
}

func cliCmdConvert(cmd *cobra.Command, args []string) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		fmt.Println("error", err)
		os.Exit(1)
	}

	isatabDir, err := cmd.Flags().GetString("isatab")
	if err != nil {
		fmt.Println("error", err)
		os.Exit(1)
	}

	xlsxPath, err := cmd.Flags().GetString("xlsx")
	if err != nil {
		fmt.Println("error", err)
		os.Exit(1)
	}

	// Check the encoding before converting, a bad setting shouldn't cost a
	// whole conversion.
	encoding, err := isatab.Encoding(viper.GetString(keyTabEncoding))
	if err != nil {
		fmt.Println("error", err)
		os.Exit(1)
	}

	investigation, diagnostics, ok := loadAndConvert(appFs, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], format)
	if !ok {
		os.Exit(1)
	}

	sinks := []output.Sink{output.NewJSONSink(appFs, args[1], viper.GetInt(keyIndent))}

	if isatabDir != "" {
		tab := output.NewTabSink(appFs, isatabDir)
		tab.SetEncoding(encoding)
		tab.SetPackaged(viper.GetBool(keyPackage))
		sinks = append(sinks, tab)
	}

	if xlsxPath != "" {
		sinks = append(sinks, output.NewWorkbookSink(appFs, xlsxPath))
	}

	if err := output.Apply(investigation, sinks...); err != nil {
		fmt.Println("Writing output failed:", err)
		os.Exit(1)
	}

	if diagnostics.Len() != 0 {
		fmt.Printf("Converted %s with %d warnings\n", args[0], diagnostics.Len())
	}
}
