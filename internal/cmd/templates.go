package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bookops/overload/internal/templates"
	"github.com/bookops/overload/pkg/bibs"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage order templates",
	Long: `Order templates carry the Sierra order field values and matchpoints
applied to order-level records during acquisitions and selection runs.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := templates.Open(cfg.TemplateDB)
		if err != nil {
			return err
		}
		defer store.Close()

		listed, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(listed) == 0 {
			fmt.Println("No templates saved.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"ID", "Name", "Agent", "Fund", "Vendor Code", "Primary", "Secondary", "Tertiary"})
		for _, tmpl := range listed {
			t.AppendRow(table.Row{
				tmpl.ID, tmpl.Name, tmpl.Agent, tmpl.Fund, tmpl.VendorCode,
				tmpl.Matchpoints.Primary, tmpl.Matchpoints.Secondary, tmpl.Matchpoints.Tertiary,
			})
		}
		t.Render()
		return nil
	},
}

var saveFlags struct {
	agent      string
	fund       string
	vendorCode string
	status     string
	orderType  string
	format     string
	lang       string
	country    string
	primary    string
	secondary  string
	tertiary   string
}

var templatesSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a new template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := templates.Open(cfg.TemplateDB)
		if err != nil {
			return err
		}
		defer store.Close()

		tmpl := &bibs.Template{
			Name:       args[0],
			Agent:      saveFlags.agent,
			Fund:       saveFlags.fund,
			VendorCode: saveFlags.vendorCode,
			Status:     saveFlags.status,
			OrderType:  saveFlags.orderType,
			Format:     saveFlags.format,
			Lang:       saveFlags.lang,
			Country:    saveFlags.country,
			Matchpoints: bibs.Matchpoints{
				Primary:   bibs.Matchpoint(saveFlags.primary),
				Secondary: bibs.Matchpoint(saveFlags.secondary),
				Tertiary:  bibs.Matchpoint(saveFlags.tertiary),
			},
		}
		saved, err := store.Save(cmd.Context(), tmpl)
		if err != nil {
			return err
		}
		fmt.Printf("Saved template %q with id %d.\n", saved.Name, saved.ID)
		return nil
	},
}

var templatesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid template id %q", args[0])
		}

		store, err := templates.Open(cfg.TemplateDB)
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.Remove(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no template with id %d", id)
		}
		fmt.Printf("Removed template %d.\n", id)
		return nil
	},
}

func init() {
	templatesSaveCmd.Flags().StringVar(&saveFlags.agent, "agent", "", "workflow agent: cat, acq, or sel (required)")
	templatesSaveCmd.Flags().StringVar(&saveFlags.fund, "fund", "", "order fund code")
	templatesSaveCmd.Flags().StringVar(&saveFlags.vendorCode, "vendor-code", "", "Sierra vendor code")
	templatesSaveCmd.Flags().StringVar(&saveFlags.status, "status", "", "order status code")
	templatesSaveCmd.Flags().StringVar(&saveFlags.orderType, "order-type", "", "order type code")
	templatesSaveCmd.Flags().StringVar(&saveFlags.format, "format", "", "material format code")
	templatesSaveCmd.Flags().StringVar(&saveFlags.lang, "lang", "", "language code")
	templatesSaveCmd.Flags().StringVar(&saveFlags.country, "country", "", "country code")
	templatesSaveCmd.Flags().StringVar(&saveFlags.primary, "primary", "", "primary matchpoint (required)")
	templatesSaveCmd.Flags().StringVar(&saveFlags.secondary, "secondary", "", "secondary matchpoint")
	templatesSaveCmd.Flags().StringVar(&saveFlags.tertiary, "tertiary", "", "tertiary matchpoint")
	_ = templatesSaveCmd.MarkFlagRequired("agent")
	_ = templatesSaveCmd.MarkFlagRequired("primary")

	templatesCmd.AddCommand(templatesListCmd, templatesSaveCmd, templatesRemoveCmd)
	rootCmd.AddCommand(templatesCmd)
}
