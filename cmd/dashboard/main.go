package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/dashboard"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
)

const help = `comandos:
  cat <automotriz|domestico|industrial|refrigeracion|todos>
  hide <device_id>     show <device_id>     showall
  togglecat            alerts <on|off>
  status <device_id>   trend <device_id> [n]
  refresh              help                 quit`

type console struct {
	mu      sync.Mutex
	state   dashboard.ViewState
	poller  *dashboard.Poller
	client  *dashboard.Client
	logger  *zap.Logger
	refresh chan struct{}
}

func (c *console) render(snap dashboard.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Print("\033[H\033[2J")
	if err := dashboard.Render(os.Stdout, c.state, snap); err != nil {
		c.logger.Error("Render failed", zap.Error(err))
	}
	fmt.Print("\n> ")
}

func (c *console) dispatch(action dashboard.Action) {
	c.mu.Lock()
	c.state = dashboard.Reduce(c.state, action)
	c.mu.Unlock()
	c.render(c.poller.Snapshot())
}

func (c *console) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	arg := func(i int) string {
		if len(fields) > i {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case "quit", "exit", "q":
		return false
	case "help":
		fmt.Println(help)
	case "cat":
		c.dispatch(dashboard.SetCategory{Category: arg(1)})
	case "hide":
		c.dispatch(dashboard.HideDevice{DeviceID: arg(1)})
	case "show":
		c.dispatch(dashboard.ShowDevice{DeviceID: arg(1)})
	case "showall":
		c.dispatch(dashboard.ShowAllDevices{Latest: c.poller.Snapshot().Latest})
	case "togglecat":
		c.dispatch(dashboard.ToggleCategoryHidden{})
	case "alerts":
		c.dispatch(dashboard.SetAlertsEnabled{Enabled: arg(1) != "off"})
	case "refresh":
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	case "status":
		status, err := c.client.DeviceStatus(ctx, arg(1))
		if err != nil {
			fmt.Println("error:", err)
			break
		}
		fmt.Printf("%s: %.1f PSI, guardado %s, en vivo %s (%s)\n",
			status.Reading.DeviceID, status.Reading.Value, status.StoredStatus, status.LiveStatus, status.CategoryName)
	case "trend":
		limit := iot.DefaultTrendLimit
		if n, err := strconv.Atoi(arg(2)); err == nil {
			limit = n
		}
		report, err := c.client.Trend(ctx, arg(1), limit)
		if err != nil {
			fmt.Println("error:", err)
			break
		}
		if report.Trend.IsEmpty() {
			fmt.Println("Datos insuficientes para la tendencia")
			break
		}
		fmt.Printf("%s: pendiente %.3f, intercepto %.3f, R² %.3f (%d lecturas)\n",
			report.DeviceID, report.Trend.Slope, report.Trend.Intercept, report.Trend.RSquared, len(report.Readings))
	default:
		fmt.Println(help)
	}
	return true
}

func main() {
	apiURL := flag.String("api", "http://127.0.0.1:1080", "base url of the pressure service")
	interval := flag.Duration("interval", dashboard.DefaultPollInterval, "poll interval")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &console{
		state:   dashboard.NewViewState(),
		client:  dashboard.NewClient(*apiURL),
		logger:  common.GetLoggerWith(common.LoggerNameDashboard),
		refresh: make(chan struct{}, 1),
	}
	c.poller = dashboard.NewPoller(c.client, *interval, c.render)

	go c.poller.Run(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.refresh:
				refreshCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				c.poller.Refresh(refreshCtx)
				cancel()
			}
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok || !c.handle(ctx, line) {
				return
			}
		}
	}
}
