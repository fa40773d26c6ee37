package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/upkeephq/upkeep/internal/domain"
	"github.com/upkeephq/upkeep/pkg/session"
)

// authResponse mirrors the server's session payload
type authResponse struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Name         string `json:"name"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func main() {
	root := &cobra.Command{
		Use:   "upkeep",
		Short: "Command-line client for the upkeep maintenance service",
	}

	root.AddCommand(authCmd())
	root.AddCommand(requestsCmd())
	root.AddCommand(invoiceCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the local session",
	}

	var username, password, role, name, phone string

	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result authResponse
			err := postJSON("/auth/register", map[string]string{
				"username": username,
				"password": password,
				"role":     role,
				"name":     name,
				"phone":    phone,
			}, &result)
			if err != nil {
				return err
			}
			if err := saveSession(result); err != nil {
				return err
			}
			fmt.Printf("registered as %s (%s)\n", result.Username, result.Role)
			return nil
		},
	}
	register.Flags().StringVar(&username, "username", "", "username")
	register.Flags().StringVar(&password, "password", "", "password")
	register.Flags().StringVar(&role, "role", "tenant", "tenant, agent, or landlord")
	register.Flags().StringVar(&name, "name", "", "display name")
	register.Flags().StringVar(&phone, "phone", "", "phone number")
	register.MarkFlagRequired("username")
	register.MarkFlagRequired("password")
	register.MarkFlagRequired("name")

	var loginUser, loginPass string
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in with username and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result authResponse
			err := postJSON("/auth/login", map[string]string{
				"username": loginUser,
				"password": loginPass,
			}, &result)
			if err != nil {
				return err
			}
			if err := saveSession(result); err != nil {
				return err
			}
			fmt.Printf("signed in as %s (%s)\n", result.Username, result.Role)
			return nil
		},
	}
	login.Flags().StringVar(&loginUser, "username", "", "username")
	login.Flags().StringVar(&loginPass, "password", "", "password")
	login.MarkFlagRequired("username")
	login.MarkFlagRequired("password")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if refresh := store.RefreshToken(); refresh != "" {
				// Best effort: the local session clears regardless
				_ = postJSON("/auth/logout", map[string]string{"refreshToken": refresh}, nil)
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("signed out")
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			profile := store.Profile()
			if profile == nil {
				fmt.Println("not signed in")
				return nil
			}
			fmt.Printf("%s (%s) %s\n", profile.Username, profile.Role, profile.Name)
			return nil
		},
	}

	cmd.AddCommand(register, login, logout, whoami)
	return cmd
}

func requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Work with maintenance requests",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List visible requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var requests []domain.MaintenanceRequest
			if err := getJSON("/requests", &requests); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY")
			for _, r := range requests {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Status, r.Priority)
			}
			return w.Flush()
		},
	}

	var title, category, description, room, priority string
	var estimated, budget float64
	create := &cobra.Command{
		Use:   "create",
		Short: "Submit a new request",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result domain.MaintenanceRequest
			err := postJSON("/requests", map[string]interface{}{
				"title":         title,
				"category":      category,
				"description":   description,
				"room":          room,
				"priority":      priority,
				"estimatedCost": estimated,
				"maxBudget":     budget,
			}, &result)
			if err != nil {
				return err
			}
			fmt.Printf("submitted request %s\n", result.ID)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "short title")
	create.Flags().StringVar(&category, "category", "", "category")
	create.Flags().StringVar(&description, "description", "", "what is wrong")
	create.Flags().StringVar(&room, "room", "", "room")
	create.Flags().StringVar(&priority, "priority", string(domain.PriorityMedium), "low, medium, high, or urgent")
	create.Flags().Float64Var(&estimated, "estimated-cost", 0, "estimated cost")
	create.Flags().Float64Var(&budget, "max-budget", 0, "max budget")
	create.MarkFlagRequired("title")
	create.MarkFlagRequired("category")
	create.MarkFlagRequired("description")

	var workerID, notes string
	assign := &cobra.Command{
		Use:   "assign <request-id>",
		Short: "Assign a worker to a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result domain.MaintenanceRequest
			err := postJSON("/requests/"+args[0]+"/assign", map[string]string{
				"workerId":   workerID,
				"agentNotes": notes,
			}, &result)
			if err != nil {
				return err
			}
			fmt.Printf("request %s is now %s\n", result.ID, result.Status)
			return nil
		},
	}
	assign.Flags().StringVar(&workerID, "worker", "", "worker id")
	assign.Flags().StringVar(&notes, "notes", "", "agent notes")
	assign.MarkFlagRequired("worker")

	var approveNotes string
	approve := &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Approve a submitted request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result domain.MaintenanceRequest
			err := postJSON("/requests/"+args[0]+"/approve", map[string]string{
				"notes": approveNotes,
			}, &result)
			if err != nil {
				return err
			}
			fmt.Printf("request %s is now %s\n", result.ID, result.Status)
			return nil
		},
	}
	approve.Flags().StringVar(&approveNotes, "notes", "", "landlord notes")

	var actualCost float64
	var completeNotes string
	complete := &cobra.Command{
		Use:   "complete <request-id>",
		Short: "Complete an in-progress request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result domain.MaintenanceRequest
			err := postJSON("/requests/"+args[0]+"/complete", map[string]interface{}{
				"actualCost": actualCost,
				"agentNotes": completeNotes,
			}, &result)
			if err != nil {
				return err
			}
			fmt.Printf("request %s is now %s\n", result.ID, result.Status)
			return nil
		},
	}
	complete.Flags().Float64Var(&actualCost, "cost", 0, "actual cost")
	complete.Flags().StringVar(&completeNotes, "notes", "", "agent notes")
	complete.MarkFlagRequired("cost")

	cmd.AddCommand(list, create, assign, approve, complete)
	return cmd
}

func invoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoice <request-id>",
		Short: "Fetch the invoice for a completed request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := getText("/requests/" + args[0] + "/invoice")
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}
}

func apiURL() string {
	if url := os.Getenv("UPKEEP_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func sessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".upkeep", "session.json")
}

func openStore() (*session.Store, error) {
	return session.Open(sessionPath())
}

func saveSession(result authResponse) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return store.SaveSession(result.AccessToken, result.RefreshToken, session.Profile{
		ID:       result.UserID,
		Username: result.Username,
		Role:     domain.Role(result.Role),
		Name:     result.Name,
	}, expiry)
}

func postJSON(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, apiURL()+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	return doJSON(req, out)
}

func getJSON(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, apiURL()+path, nil)
	if err != nil {
		return err
	}
	addAuthHeader(req)

	return doJSON(req, out)
}

func getText(path string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, apiURL()+path, nil)
	if err != nil {
		return "", err
	}
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

func doJSON(req *http.Request, out interface{}) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func addAuthHeader(req *http.Request) {
	store, err := openStore()
	if err != nil {
		return
	}
	if token := store.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
