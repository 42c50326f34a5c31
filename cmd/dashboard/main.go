// Command dashboard renders a project's derived figures in the
// terminal, for checking an operation without opening the web sheet.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	baseURL    string
	proyectoID int64
	authToken  string
)

var (
	verdictGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	verdictYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	verdictRed    = color.New(color.FgRed, color.Bold).SprintFunc()
)

type resumenResponse struct {
	OK      bool `json:"ok"`
	Resumen struct {
		Proyecto struct {
			Nombre    string `json:"nombre"`
			Estado    string `json:"estado"`
			Direccion string `json:"direccion"`
			Modo      string `json:"modo"`
		} `json:"proyecto"`
		MetricasFmt map[string]string `json:"metricas_fmt"`
		Analisis    struct {
			Veredicto string `json:"veredicto"`
		} `json:"analisis"`
		AnalisisFmt map[string]string `json:"analisis_fmt"`
		Categorias  []struct {
			Categoria  string  `json:"categoria"`
			ImporteFmt string  `json:"importe_fmt"`
			Pct        float64 `json:"pct"`
		} `json:"categorias"`
		Ultimos []struct {
			Tipo       string `json:"tipo"`
			Fecha      string `json:"fecha"`
			Concepto   string `json:"concepto"`
			ImporteFmt string `json:"importe_fmt"`
			Estado     string `json:"estado"`
		} `json:"ultimos_movimientos"`
	} `json:"resumen"`
}

type captacionResponse struct {
	OK        bool `json:"ok"`
	Captacion struct {
		Nombre   string `json:"nombre"`
		Progreso struct {
			PctCaptado float64 `json:"pct_captado"`
		} `json:"progreso"`
		ProgresoFmt map[string]string `json:"progreso_fmt"`
	} `json:"captacion"`
}

func fetchJSON(path string, out interface{}) error {
	url := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s responded with status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func coloredVerdict(v string) string {
	switch v {
	case "viable":
		return verdictGreen("VIABLE")
	case "ajustada":
		return verdictYellow("AJUSTADA")
	default:
		return verdictRed("NO VIABLE")
	}
}

func runResumen(cmd *cobra.Command, args []string) error {
	var data resumenResponse
	if err := fetchJSON(fmt.Sprintf("/api/proyectos/%d/resumen", proyectoID), &data); err != nil {
		return err
	}
	r := data.Resumen

	pterm.DefaultSection.Printf("%s (%s, datos %s)\n", r.Proyecto.Nombre, r.Proyecto.Estado, r.Proyecto.Modo)
	if r.Proyecto.Direccion != "" {
		pterm.Info.Println(r.Proyecto.Direccion)
	}

	m := r.MetricasFmt
	tableData := pterm.TableData{
		{"Concepto", "Importe"},
		{"Precio de compra", m["precio_compra"]},
		{"Gastos de adquisición", m["gastos_adquisicion"]},
		{"Valor de adquisición", m["valor_adquisicion"]},
		{"Precio de venta", m["precio_venta"]},
		{"Gastos de venta", m["gastos_venta"]},
		{"Valor de transmisión", m["valor_transmision"]},
		{"Beneficio bruto", m["beneficio_bruto"]},
		{"Comisión", m["comision"]},
		{"Beneficio neto", m["beneficio_neto"]},
		{"ROI", m["roi"]},
		{"ROI neto", m["roi_neto"]},
	}
	rendered, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData).
		Srender()
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	a := r.AnalisisFmt
	analysisData := pterm.TableData{
		{"Análisis", "Valor"},
		{"Veredicto", coloredVerdict(r.Analisis.Veredicto)},
		{"Venta mínima", a["min_venta"]},
		{"Colchón", a["colchon"]},
		{"Margen", a["margen"]},
		{"Ajuste de venta", a["ajuste_venta"]},
		{"Ajuste de gastos", a["ajuste_gastos"]},
	}
	rendered, err = pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithData(analysisData).
		Srender()
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	if len(r.Categorias) > 0 {
		pterm.DefaultSection.Println("Gastos por categoría")
		for _, c := range r.Categorias {
			barLength := int(c.Pct / 100 * 30)
			if barLength > 30 {
				barLength = 30
			}
			bar := strings.Repeat("█", barLength) + strings.Repeat("░", 30-barLength)
			fmt.Printf("  %-12s %s %s\n", c.Categoria, pterm.FgCyan.Sprint(bar), c.ImporteFmt)
		}
		fmt.Println()
	}

	if len(r.Ultimos) > 0 {
		movData := pterm.TableData{{"Fecha", "Tipo", "Concepto", "Importe", "Estado"}}
		for _, mov := range r.Ultimos {
			movData = append(movData, []string{mov.Fecha, mov.Tipo, mov.Concepto, mov.ImporteFmt, mov.Estado})
		}
		rendered, err = pterm.DefaultTable.WithHasHeader().WithData(movData).Srender()
		if err != nil {
			return err
		}
		fmt.Println(rendered)
	}
	return nil
}

func runCaptacion(cmd *cobra.Command, args []string) error {
	var data captacionResponse
	if err := fetchJSON(fmt.Sprintf("/api/proyectos/%d/captacion", proyectoID), &data); err != nil {
		return err
	}
	c := data.Captacion

	pterm.DefaultSection.Printf("Captación: %s\n", c.Nombre)

	barLength := int(c.Progreso.PctCaptado / 100 * 40)
	if barLength > 40 {
		barLength = 40
	}
	bar := strings.Repeat("█", barLength) + strings.Repeat("░", 40-barLength)
	fmt.Printf("  %s %s\n\n", pterm.FgGreen.Sprint(bar), c.ProgresoFmt["pct_captado"])

	tableData := pterm.TableData{
		{"Concepto", "Importe"},
		{"Objetivo", c.ProgresoFmt["objetivo"]},
		{"Captado", c.ProgresoFmt["captado"]},
		{"Restante", c.ProgresoFmt["restante"]},
	}
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Terminal dashboard for Inversure projects",
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "http://localhost:8080", "backend base URL")
	rootCmd.PersistentFlags().Int64Var(&proyectoID, "proyecto", 0, "project id")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("INVERSURE_TOKEN"), "bearer token")

	resumenCmd := &cobra.Command{
		Use:   "resumen",
		Short: "Show a project's derived figures and viability analysis",
		RunE:  runResumen,
	}
	captacionCmd := &cobra.Command{
		Use:   "captacion",
		Short: "Show a project's capital raise progress",
		RunE:  runCaptacion,
	}
	rootCmd.AddCommand(resumenCmd, captacionCmd)

	rootCmd.MarkPersistentFlagRequired("proyecto")

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
