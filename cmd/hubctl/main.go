package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) postForm(path string, form url.Values) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	resp, err := c.HTTP.PostForm(u, form)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) get(path string) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	resp, err := c.HTTP.Get(u)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("INTEGRATIONHUB_URL", "http://localhost:8080")
		out     = envOr("INTEGRATIONHUB_OUT", "text")
		userID  string
		orgID   string
	)

	c := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}

	root := &cobra.Command{
		Use:   "hubctl",
		Short: "CLI para probar el servicio de integraciones (/v1/integrations)",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.BaseURL = baseURL
			c.OutFormat = out
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env INTEGRATIONHUB_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "formato de salida: text | json (env INTEGRATIONHUB_OUT)")

	providers := &cobra.Command{
		Use:   "providers",
		Short: "Lista los proveedores registrados",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := c.get("/v1/integrations/providers")
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}

	authorize := &cobra.Command{
		Use:   "authorize <provider>",
		Short: "Inicia un flujo de autorización y muestra la URL para el browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := c.postForm("/v1/integrations/"+args[0]+"/authorize", url.Values{
				"user_id": {userID},
				"org_id":  {orgID},
			})
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}
	authorize.Flags().StringVar(&userID, "user", "", "user id")
	authorize.Flags().StringVar(&orgID, "org", "", "org id")
	_ = authorize.MarkFlagRequired("user")
	_ = authorize.MarkFlagRequired("org")

	credentials := &cobra.Command{
		Use:   "credentials <provider>",
		Short: "Retira las credenciales guardadas por el callback (lectura one-time)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := c.postForm("/v1/integrations/"+args[0]+"/credentials", url.Values{
				"user_id": {userID},
				"org_id":  {orgID},
			})
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}
	credentials.Flags().StringVar(&userID, "user", "", "user id")
	credentials.Flags().StringVar(&orgID, "org", "", "org id")
	_ = credentials.MarkFlagRequired("user")
	_ = credentials.MarkFlagRequired("org")

	var credsJSON string
	items := &cobra.Command{
		Use:   "items <provider>",
		Short: "Lista los items del proveedor usando credenciales ya retiradas",
		Long:  "Recibe las credenciales como JSON por --credentials o por stdin (con --credentials -).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := credsJSON
			if raw == "-" {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				raw = string(b)
			}
			if strings.TrimSpace(raw) == "" {
				return fmt.Errorf("faltan credenciales (--credentials)")
			}
			status, body, err := c.postForm("/v1/integrations/"+args[0]+"/items", url.Values{
				"credentials": {raw},
			})
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}
	items.Flags().StringVar(&credsJSON, "credentials", "", "credenciales en JSON, o '-' para leer de stdin")

	root.AddCommand(providers, authorize, credentials, items)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
