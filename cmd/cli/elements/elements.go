package elements

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/twxlab/twx/cmd/cli/config"
	"github.com/twxlab/twx/cmd/cli/output"
)

// ==========================
// Init Elements
// ==========================
func InitElements(rootCmd *cobra.Command) {

	elementsCmd := &cobra.Command{
		Use:   "elements",
		Short: "Manage tracked elements",
	}

	elementsCmd.AddCommand(
		listElementsCmd(),
		registerElementCmd(),
		showElementCmd(),
	)

	rootCmd.AddCommand(elementsCmd)
}

// ==========================
// LIST
// ==========================
func listElementsCmd() *cobra.Command {
	var projectID string
	var status string
	var ifcType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List elements",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			url := config.APIURL() + "/elements?"
			if projectID != "" {
				url += "project_id=" + projectID + "&"
			}
			if status != "" {
				url += "status=" + status + "&"
			}
			if ifcType != "" {
				url += "ifc_type=" + ifcType
			}

			req, _ := http.NewRequest("GET", url, nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var elements []struct {
				ID          int64  `json:"id"`
				AssetNumber string `json:"asset_number"`
				IfcType     string `json:"ifc_type"`
				Status      string `json:"status"`
				Condition   string `json:"current_condition"`
				ProjectID   int64  `json:"current_project_id"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
				fmt.Println(err)
				return
			}

			rows := make([][]interface{}, 0, len(elements))
			for _, e := range elements {
				rows = append(rows, []interface{}{
					e.ID, e.AssetNumber, e.IfcType, e.Status, e.Condition, e.ProjectID,
				})
			}
			output.RenderTable(
				[]string{"ID", "Asset Number", "IFC Type", "Status", "Condition", "Project"},
				rows,
			)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "filter by project id")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&ifcType, "ifc-type", "", "filter by IFC type")

	return cmd
}

// ==========================
// REGISTER
// ==========================
func registerElementCmd() *cobra.Command {

	var ifcType string
	var projectID int64
	var condition string
	var name string
	var notes string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new element",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			payload := map[string]interface{}{
				"ifc_type":   ifcType,
				"project_id": projectID,
				"condition":  condition,
				"name":       name,
				"notes":      notes,
			}

			body, _ := json.Marshal(payload)

			req, _ := http.NewRequest("POST", config.APIURL()+"/elements", bytes.NewBuffer(body))
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
		},
	}

	cmd.Flags().StringVar(&ifcType, "ifc-type", "", "IFC type, e.g. IfcBeam")
	cmd.Flags().Int64Var(&projectID, "project", 0, "project id")
	cmd.Flags().StringVar(&condition, "condition", "Good", "initial condition")
	cmd.Flags().StringVar(&name, "name", "", "element name")
	cmd.Flags().StringVar(&notes, "notes", "", "element notes")

	return cmd
}

// ==========================
// SHOW
// ==========================
func showElementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show element details",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			req, _ := http.NewRequest("GET", config.APIURL()+"/elements/"+args[0]+"/details", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
		},
	}
}
