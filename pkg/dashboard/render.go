package dashboard

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

func alertIcon(t models.AlertType) string {
	switch t {
	case models.AlertTypeCritical:
		return "!!"
	case models.AlertTypeWarning:
		return "! "
	default:
		return "i "
	}
}

// Render writes one screen: the visible device cards and the alert list.
func Render(w io.Writer, state ViewState, snap Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Categoría: %s\n", categoryLabel(state.Category))
	if !snap.FetchedAt.IsZero() {
		fmt.Fprintf(tw, "Actualizado: %s\n", snap.FetchedAt.Format(timeLayout))
	}
	if snap.LastError != nil {
		fmt.Fprintf(tw, "Sin conexión: %v\n", snap.LastError)
	}
	fmt.Fprintln(tw)

	visible := state.Visible(snap.Latest)
	if len(visible) == 0 {
		fmt.Fprintln(tw, "No hay dispositivos en esta categoría")
	} else {
		fmt.Fprintln(tw, "DISPOSITIVO\tPRESIÓN\tESTATUS\tCATEGORÍA\tFECHA")
		for _, r := range visible {
			fmt.Fprintf(tw, "%s\t%.1f PSI\t%s\t%s\t%s\n",
				r.DeviceID,
				r.Value,
				iot.Classify(r.Value).String(),
				models.CategoryDisplayName(r.Categoria),
				r.CreatedAt.Local().Format(timeLayout),
			)
		}
	}
	if hidden := state.Hidden(snap.Latest); len(hidden) > 0 {
		fmt.Fprintf(tw, "(%d ocultos)\n", len(hidden))
	}
	fmt.Fprintln(tw)

	if !state.AlertsEnabled {
		fmt.Fprintln(tw, "Alertas desactivadas")
	} else {
		for _, a := range snap.Alerts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", alertIcon(a.Type), a.Title, a.Message, a.Time.Local().Format(time.Kitchen))
		}
	}

	return tw.Flush()
}

func categoryLabel(category string) string {
	if category == CategoryAll {
		return "Todos"
	}
	return models.CategoryDisplayName(category)
}
