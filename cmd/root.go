package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration. A .resumen.yaml in the working directory
// or the home directory overrides it key by key; the keyword lists are tuned
// against HSBC Argentina statement samples.
const defaultConfigYAML = `
tolerance:
  ratio: 0.05
  denominator_floor: 1.0
  secondary_abs_floor: 0.01
lexicon:
  commentary:
    - ABONANDO EL PAGO
    - ESTAS MISMAS TASAS
    - CFT
    - TNA
    - TASA EFECTIVA
  tail_markers:
    - CONDICIONES GENERALES
    - REGIMEN DE TRANSPARENCIA
    - INFORMACION AL USUARIO DE SERVICIOS FINANCIEROS
  adjustment_prefixes:
    - 'DEV '
    - IMPUESTO
    - PERCEP
    - 'PERC '
    - INT.
    - INTERES
    - I.V.A
    - 'IVA '
    - IVA.
    - 'IVA:'
    - PUNITORIO
  adjustment_excludes:
    - 'SALDO '
    - SUBTOTAL
    - 'TOTAL '
    - 'COMPRAS '
    - PAGO MINIMO
    - VENCIMIENTO
    - 'CIERRE '
    - 'LIMITE '
    - 'LÍMITE '
    - 'ABONANDO '
    - EFVO
    - ENT/SUCURSAL
    - 'DB '
  financial:
    - SU\s+PAGO
    - PAGO
    - IMPUESTO
    - PERCEP
    - INTERES
    - INT\.
    - DEV
  visa_financial:
    - SU\s+PAGO
    - IMPUESTO
    - IVA
    - COM\s+
    - BONI\s+
`

var (
	cfgFile  string
	logLevel string
	logFile  string
	verbose  bool

	// logger is shared by all subcommands and handed to the engine.
	logger = logrus.New()

	rootCmd = &cobra.Command{
		Use:   "resumen [input]",
		Short: "Extract transactions from HSBC Argentina statements",
		Long: `resumen turns HSBC Argentina statement PDFs (Mastercard, Visa and
savings account) into structured statements, transactions and warnings.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				runExtract(args[0])
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.resumen.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level (debug, info, warning, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level=info")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".resumen")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Printf("Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

func initLogging() {
	level := logLevel
	if verbose && level == "warning" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		fmt.Printf("Invalid log level %q: %v\n", level, err)
		os.Exit(1)
	}
	logger.SetLevel(parsed)
	logger.SetOutput(os.Stderr)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			os.Exit(1)
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, f))
	}
}
