package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ClipXonchain/proofledger/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	registryURL string
	bearerToken string
	cfgFile     string
	outputJSON  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipx",
	Short: "ClipX proofledger CLI",
	Long: `clipx is the command-line interface for the ClipX proof ledger.

It registers and verifies screenshot proofs, operates the custodial
treasury, and audits the registry's event chain.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.clipx")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if registryURL == "" {
			registryURL = viper.GetString("registry_url")
		}
		if registryURL == "" {
			registryURL = "http://localhost:8080"
		}
		if bearerToken == "" {
			bearerToken = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.clipx/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&registryURL, "registry", "", "registry URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "caller bearer token (default from config or CLIPX token env)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output JSON instead of text")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(proofCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(controllerCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() (*client.Client, error) {
	opts := []client.Option{}
	if bearerToken != "" {
		opts = append(opts, client.WithBearerToken(bearerToken))
	}
	return client.New(registryURL, opts...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── login ────────────────────────────────────────────────────────────────────

var loginAddress string

var loginCmd = &cobra.Command{
	Use:   "login <issuer-secret>",
	Short: "Exchange the issuer secret for a caller token",
	Long: `Login mints a caller token bound to --address and prints it.

Save the token in ~/.clipx/config.yaml under "token" (or pass --token)
to authenticate subsequent commands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginAddress == "" {
			return fmt.Errorf("--address is required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		token, err := c.IssueToken(context.Background(), loginAddress, args[0])
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(map[string]string{"token": token, "address": loginAddress})
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginAddress, "address", "", "caller address to bind the token to")
}

// ── register / verify / proof ────────────────────────────────────────────────

var registerCmd = &cobra.Command{
	Use:   "register <cid> <post-id>",
	Short: "Register a screenshot proof binding a CID to a post",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.RegisterProof(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(p)
		}
		fmt.Printf("registered %s -> %s at %s\n",
			p.CID, p.PostID, time.Unix(p.Timestamp, 0).UTC().Format(time.RFC3339))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <cid>",
	Short: "Check whether a CID is registered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.Verify(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printProof(p)
	},
}

var proofCmd = &cobra.Command{
	Use:   "proof <post-id>",
	Short: "Look up the proof bound to a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.ProofByPost(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printProof(p)
	},
}

func printProof(p *client.Proof) error {
	if outputJSON {
		return printJSON(p)
	}
	if !p.Registered {
		fmt.Println("not registered")
		return nil
	}
	fmt.Printf("CID:        %s\n", p.CID)
	fmt.Printf("Post:       %s\n", p.PostID)
	fmt.Printf("Registered: %s\n", time.Unix(p.Timestamp, 0).UTC().Format(time.RFC3339))
	if p.Recorder != "" {
		fmt.Printf("Recorder:   %s\n", p.Recorder)
	}
	return nil
}

// ── treasury ─────────────────────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the treasury balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		balance, err := c.Balance(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(map[string]int64{"balance": balance})
		}
		fmt.Println(balance)
		return nil
	},
}

var depositCmd = &cobra.Command{
	Use:   "deposit <amount>",
	Short: "Deposit value units into the treasury",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		balance, err := c.Deposit(context.Background(), amount)
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(map[string]int64{"balance": balance})
		}
		fmt.Printf("deposited %d, balance %d\n", amount, balance)
		return nil
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Drain the full treasury balance to the controller",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		amount, err := c.WithdrawAll(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(map[string]int64{"withdrawn": amount})
		}
		fmt.Printf("withdrew %d\n", amount)
		return nil
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <recipient> <amount>",
	Short: "Release value units from the treasury to a recipient",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.Transfer(context.Background(), args[0], amount); err != nil {
			return err
		}
		fmt.Printf("transferred %d to %s\n", amount, args[0])
		return nil
	},
}

// ── controller ───────────────────────────────────────────────────────────────

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Show or transfer the controller role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		addr, err := c.Controller(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(map[string]string{"controller": addr})
		}
		fmt.Println(addr)
		return nil
	},
}

var controllerTransferCmd = &cobra.Command{
	Use:   "transfer <new-controller>",
	Short: "Hand the controller role to a new address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.TransferController(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("controller is now %s\n", args[0])
		return nil
	},
}

func init() {
	controllerCmd.AddCommand(controllerTransferCmd)
}

// ── events ───────────────────────────────────────────────────────────────────

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the event chain length and root hash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		overview, err := c.ChainOverview(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(overview)
		}
		fmt.Printf("Entries: %d\n", overview.Entries)
		fmt.Printf("Root:    %s\n", overview.Root)
		return nil
	},
}

var eventsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Audit the event chain's hash integrity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		valid, err := c.VerifyChain(context.Background())
		if err != nil {
			return err
		}
		if !valid {
			fmt.Println("TAMPERED: event chain integrity check failed")
			os.Exit(1)
		}
		fmt.Println("chain intact")
		return nil
	},
}

var eventsGetCmd = &cobra.Command{
	Use:   "get <index>",
	Short: "Show a single event chain entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[0])
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		entry, err := c.ChainEntry(context.Background(), idx)
		if err != nil {
			return err
		}
		return printJSON(entry)
	},
}

func init() {
	eventsCmd.AddCommand(eventsVerifyCmd)
	eventsCmd.AddCommand(eventsGetCmd)
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the clipx version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("clipx", version)
	},
}
