package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danmuck/interopctl/internal/interop"
	"github.com/danmuck/interopctl/internal/logging"
	"github.com/danmuck/interopctl/internal/protocol"
)

const usage = `usage: interopctl [flags] <command> [args]

commands:
  register                                  register this module with the broker
  unregister                                remove this module's registration
  call <target> <method> [params-json]      synchronous rpc over request/reply
  send <target> <method> [params] [prio]    fire-and-forget queued send
  callws <target> <method> [params-json]    rpc over the duplex channel
  queue                                     list the broker message queue
  process [limit]                           ask the broker to drain the queue
  modules                                   list registered modules
  health                                    broker health payload
  listen <target>                           subscribe and print broadcast frames

flags:
`

func main() {
	logging.ConfigureRuntime()

	var (
		configPath = flag.String("config", "", "path to interopctl TOML config")
		serverURL  = flag.String("server", "", "broker base URL (overrides config)")
		moduleName = flag.String("name", "", "module name (overrides config)")
		language   = flag.String("language", "", "language tag (overrides config)")
		port       = flag.Int("port", 0, "module port (overrides config)")
		noRegister = flag.Bool("no-register", false, "disable auto-registration")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := defaultCLIConfig()
	if *configPath != "" {
		loaded, err := loadCLIConfig(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if *serverURL != "" {
		cfg.Client.ServerURL = *serverURL
	}
	if *moduleName != "" {
		cfg.Client.ModuleName = *moduleName
	}
	if *language != "" {
		cfg.Client.Language = *language
	}
	if *port > 0 {
		cfg.Client.Port = *port
	}
	if *noRegister {
		cfg.Client.AutoRegister = false
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client, err := interop.New(cfg.Client)
	if err != nil {
		fatal(err)
	}

	if err := run(client, cfg, args[0], args[1:]); err != nil {
		fatal(err)
	}
}

func run(client *interop.Client, cfg cliConfig, command string, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout)
	defer cancel()

	switch command {
	case "register":
		return client.Register(ctx)
	case "unregister":
		return client.Unregister(ctx)
	case "call":
		target, method, params, err := callArgs(args)
		if err != nil {
			return err
		}
		result, err := client.Call(ctx, target, method, params)
		if err != nil {
			return err
		}
		return printJSON(result)
	case "send":
		target, method, params, err := callArgs(args)
		if err != nil {
			return err
		}
		priority := 0
		if len(args) >= 4 {
			priority, err = strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("parse priority: %w", err)
			}
		}
		id, err := client.Send(ctx, target, method, params, priority)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	case "callws":
		target, method, params, err := callArgs(args)
		if err != nil {
			return err
		}
		if err := client.Open(ctx); err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		result, err := client.CallDuplex(ctx, target, method, params)
		if err != nil {
			return err
		}
		return printJSON(result)
	case "queue":
		msgs, err := client.Queue(ctx)
		if err != nil {
			return err
		}
		return printJSON(msgs)
	case "process":
		limit := 10
		if len(args) >= 1 {
			var err error
			limit, err = strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parse limit: %w", err)
			}
		}
		result, err := client.ProcessQueue(ctx, limit)
		if err != nil {
			return err
		}
		return printJSON(result)
	case "modules":
		mods, err := client.Modules(ctx)
		if err != nil {
			return err
		}
		return printJSON(mods)
	case "health":
		payload, err := client.Health(ctx)
		if err != nil {
			return err
		}
		return printJSON(payload)
	case "listen":
		if len(args) < 1 {
			return fmt.Errorf("listen: target required")
		}
		return listen(client, args[0])
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// listen subscribes to one target and prints broadcast frames until
// interrupted. Subscriptions are not replayed across reconnects, so a
// channel drop during listen means new broadcasts stop until restarted.
func listen(client *interop.Client, target string) error {
	openCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Open(openCtx); err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	client.OnBroadcast(func(f protocol.Frame) {
		if err := printJSON(f); err != nil {
			fmt.Fprintf(os.Stderr, "interopctl: %v\n", err)
		}
	})
	if err := client.Subscribe(target); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

func callArgs(args []string) (target, method string, params any, err error) {
	if len(args) < 2 {
		return "", "", nil, fmt.Errorf("target and method required")
	}
	target, method = args[0], args[1]
	if len(args) >= 3 && args[2] != "" {
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(args[2]), &raw); err != nil {
			return "", "", nil, fmt.Errorf("parse params json: %w", err)
		}
		params = raw
	}
	return target, method, params, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "interopctl: %v\n", err)
	os.Exit(1)
}
