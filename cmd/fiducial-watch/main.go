// fiducial-watch - print the live detection stream of a running fiducial
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-fiducial/internal/httpc"
	"github.com/teslashibe/go-fiducial/pkg/web"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Diagnostics server host:port")
	quiet := flag.Bool("quiet", false, "Only print frames that contain tags")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var status web.Status
	statusURL := url.URL{Scheme: "http", Host: *addr, Path: "/api/status"}
	if err := httpc.GetJSON(ctx, statusURL.String(), &status); err != nil {
		fmt.Printf("❌ Status: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("🔗 Session %s (%d frames processed, %.1f fps)\n", status.Session, status.Processed, status.FPS)

	wsURL := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/detections"}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		fmt.Printf("❌ Connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	fmt.Println("👀 Watching detections (Ctrl+C to stop)")
	for {
		var ev web.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				fmt.Println("\n👋 Goodbye!")
				return
			}
			fmt.Printf("❌ Stream closed: %v\n", err)
			os.Exit(1)
		}
		if *quiet && len(ev.Detections) == 0 {
			continue
		}
		printEvent(ev)
	}
}

func printEvent(ev web.Event) {
	fmt.Printf("[%s] #%d %.1f fps, %d tag(s)\n",
		ev.Timestamp.Format("15:04:05.000"), ev.Iteration, ev.FPS, len(ev.Detections))
	for _, d := range ev.Detections {
		o := d.Observation
		fmt.Printf("   🏷️  %s id=%d center=(%.1f, %.1f)", o.Family, o.ID, o.Center.X, o.Center.Y)
		if d.Pose != nil {
			t := d.Pose.Translation
			fmt.Printf(" t=[%.3f %.3f %.3f]", t[0], t[1], t[2])
		}
		fmt.Println()
	}
}
