package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/audiolibrelab/takedeck/internal/take"

	"github.com/spf13/cobra"
)

var takesCmd = &cobra.Command{
	Use:   "takes",
	Short: "List the take catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		snap := svc.CatalogSnapshot()
		if len(snap) == 0 {
			fmt.Println("No takes recorded yet")
			return nil
		}

		names := make([]string, 0, len(snap))
		for name := range snap {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tTIME")
		for _, name := range names {
			md := snap[name]
			fmt.Fprintf(w, "%s\t%d\t%.2fs\n", name, md.Size, md.Time)
		}
		return w.Flush()
	},
}

var saveCmd = &cobra.Command{
	Use:   "save [name]",
	Short: "Save the working take under a new name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ok, err := svc.SaveCurrent(name)
		if err != nil {
			return fmt.Errorf("failed to save take: %w", err)
		}
		if !ok {
			return fmt.Errorf("cannot save %q: no working take, or the name is already used", name)
		}
		fmt.Printf("Saved working take as %q\n", name)
		return nil
	},
}

var useCmd = &cobra.Command{
	Use:   "use [name-or-path]",
	Short: "Make a saved take or a .wav file the working take",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier := args[0]
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ok, err := svc.SetAsCurrent(identifier)
		if err != nil {
			return fmt.Errorf("failed to set working take: %w", err)
		}
		if !ok {
			return fmt.Errorf("%q is neither a saved take nor a .wav file", identifier)
		}
		fmt.Printf("Working take set from %q\n", identifier)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a saved take",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if name == take.WorkingName {
			return fmt.Errorf("the working take cannot be deleted")
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ok, err := svc.Delete(name)
		if err != nil {
			return fmt.Errorf("failed to delete take: %w", err)
		}
		if !ok {
			return fmt.Errorf("no saved take named %q", name)
		}
		fmt.Printf("Deleted %q\n", name)
		return nil
	},
}
