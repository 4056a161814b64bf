package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

var cfgFile string

// appFs is the filesystem every command reads and writes through.
var appFs = afero.NewOsFs()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "isaphm",
	Short: "Converts ISA-PHM experiment descriptions to ISA-JSON and ISA-Tab.",
	Long: `isaphm reads an experiment description, either the JSON document written by the
ISA-PHM wizard or the legacy ISA-PHM input workbook, and converts it into an ISA
investigation written as ISA-JSON, ISA-Tab and optionally an Excel workbook.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.isaphm.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error, critical")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".isaphm" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".isaphm")
	}

	viper.SetEnvPrefix("ISAPHM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	configErr := viper.ReadInConfig()

	threshold, err := logThreshold(viper.GetString("log.level"))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	jww.SetStdoutThreshold(threshold)

	switch {
	case configErr == nil:
		jww.INFO.Println("Using config file:", viper.ConfigFileUsed())
	case cfgFile != "":
		// Only a config file that was asked for has to exist.
		fmt.Println("Unable to read config file:", configErr)
		os.Exit(1)
	}
}
