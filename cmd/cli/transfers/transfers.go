package transfers

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
// Init Transfers
// ==========================
func InitTransfers(rootCmd *cobra.Command) {

	transfersCmd := &cobra.Command{
		Use:   "transfers",
		Short: "Manage element transfers",
	}

	transfersCmd.AddCommand(
		pendingTransfersCmd(),
		requestTransferCmd(),
		approveTransferCmd(),
		receiveTransferCmd(),
	)

	rootCmd.AddCommand(transfersCmd)
}

// ==========================
// PENDING
// ==========================
func pendingTransfersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List transfers awaiting approval or receipt",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.ReadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			req, _ := http.NewRequest("GET", config.APIURL()+"/transfers/pending", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var transfers []struct {
				ID             int64  `json:"id"`
				ElementID      int64  `json:"element_id"`
				ProjectID      int64  `json:"project_id"`
				Status         string `json:"status"`
				SourceApproved bool   `json:"source_approved"`
				DestApproved   bool   `json:"destination_approved"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&transfers); err != nil {
				fmt.Println(err)
				return
			}

			rows := make([][]interface{}, 0, len(transfers))
			for _, t := range transfers {
				rows = append(rows, []interface{}{
					t.ID, t.ElementID, t.ProjectID, t.Status, t.SourceApproved, t.DestApproved,
				})
			}
			output.RenderTable(
				[]string{"ID", "Element", "To Project", "Status", "Source OK", "Dest OK"},
				rows,
			)
		},
	}
}

// ==========================
// REQUEST
// ==========================
func requestTransferCmd() *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "request [element-id]",
		Short: "Request a transfer to another project",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/elements/"+args[0]+"/transfer-request",
				map[string]interface{}{"project_id": projectID})
		},
	}

	cmd.Flags().Int64Var(&projectID, "project", 0, "destination project id")
	return cmd
}

// ==========================
// APPROVE
// ==========================
func approveTransferCmd() *cobra.Command {
	var projectID int64
	var role string

	cmd := &cobra.Command{
		Use:   "approve [element-id]",
		Short: "Approve a pending transfer as source or destination",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/elements/"+args[0]+"/approve",
				map[string]interface{}{"project_id": projectID, "role": role})
		},
	}

	cmd.Flags().Int64Var(&projectID, "project", 0, "destination project id")
	cmd.Flags().StringVar(&role, "role", "", "approval role: source or destination")
	return cmd
}

// ==========================
// RECEIVE
// ==========================
func receiveTransferCmd() *cobra.Command {
	var projectID int64
	var condition string
	var notes string
	var location string

	cmd := &cobra.Command{
		Use:   "receive [element-id]",
		Short: "Receive a fully approved element at its destination",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/elements/"+args[0]+"/receive", map[string]interface{}{
				"project_id":         projectID,
				"received_condition": condition,
				"condition_notes":    notes,
				"actual_location":    location,
			})
		},
	}

	cmd.Flags().Int64Var(&projectID, "project", 0, "destination project id")
	cmd.Flags().StringVar(&condition, "condition", "Good", "condition on arrival")
	cmd.Flags().StringVar(&notes, "notes", "", "condition notes")
	cmd.Flags().StringVar(&location, "location", "", "actual location on site")
	return cmd
}

func postJSON(path string, payload map[string]interface{}) {
	token, err := config.ReadToken()
	if err != nil {
		fmt.Println("Please login first")
		return
	}

	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", config.APIURL()+path, bytes.NewBuffer(body))
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
}
