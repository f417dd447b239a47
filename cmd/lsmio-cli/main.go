// Command lsmio-cli is an interactive REPL over a lsmio Store: put,
// get, delete, scan and barrier, one command per line.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tybulut/lsmio/pkg/config"
	"github.com/tybulut/lsmio/pkg/logging"
	"github.com/tybulut/lsmio/pkg/store"
)

type cli struct {
	store   *store.Store
	scanner *bufio.Scanner
}

func main() {
	dataDir := flag.String("data", "./data/lsmio", "database directory")
	configPath := flag.String("config", "", "optional YAML config file (defaults applied otherwise)")
	overwrite := flag.Bool("overwrite", false, "wipe the database directory before opening")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lsmio-cli: loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(*logLevel))

	s, err := store.Open(*dataDir, *overwrite, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lsmio-cli: opening database at %s: %v\n", *dataDir, err)
		os.Exit(1)
	}
	defer s.Close()

	fmt.Printf("lsmio-cli: opened %s (storage_type=%s, session=%s)\n", *dataDir, cfg.StorageType, s.SessionID)
	fmt.Println("Type 'help' for available commands, 'exit' to quit.")

	c := &cli{store: s, scanner: bufio.NewScanner(os.Stdin)}
	c.run()
}

func (c *cli) run() {
	for {
		fmt.Print("lsmio> ")
		if !c.scanner.Scan() {
			break
		}
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		c.execute(line)
	}
}

func (c *cli) execute(line string) {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "help":
		c.showHelp()

	case "put":
		if len(parts) < 3 {
			fmt.Println("usage: put <key> <value>")
			return
		}
		ok := c.store.Put([]byte(parts[1]), []byte(strings.Join(parts[2:], " ")), false)
		fmt.Println(ok)

	case "get":
		if len(parts) < 2 {
			fmt.Println("usage: get <key>")
			return
		}
		v, ok := c.store.Get([]byte(parts[1]))
		if !ok {
			fmt.Println("(not found)")
			return
		}
		fmt.Println(string(v))

	case "delete", "del":
		if len(parts) < 2 {
			fmt.Println("usage: delete <key>")
			return
		}
		ok := c.store.Delete([]byte(parts[1]), false)
		fmt.Println(ok)

	case "scan":
		if len(parts) < 2 {
			fmt.Println("usage: scan <prefix>")
			return
		}
		kvs := c.store.GetPrefix([]byte(parts[1]))
		fmt.Println(strconv.Itoa(len(kvs)) + " entries")
		for _, kv := range kvs {
			fmt.Printf("  %s = %s\n", kv.Key, kv.Value)
		}

	case "barrier":
		fmt.Println(c.store.WriteBarrier())

	case "meta-put":
		if len(parts) < 3 {
			fmt.Println("usage: meta-put <key> <value>")
			return
		}
		ok := c.store.MetaPut([]byte(parts[1]), []byte(strings.Join(parts[2:], " ")))
		fmt.Println(ok)

	case "meta-get":
		if len(parts) < 2 {
			fmt.Println("usage: meta-get <key>")
			return
		}
		v, ok := c.store.MetaGet([]byte(parts[1]))
		if !ok {
			fmt.Println("(not found)")
			return
		}
		fmt.Println(string(v))

	default:
		fmt.Printf("unknown command: %s (type 'help' for available commands)\n", cmd)
	}
}

func (c *cli) showHelp() {
	fmt.Println(`Commands:
  put <key> <value>      store a value
  get <key>               fetch a value
  delete <key>            remove a value
  scan <prefix>           list all live keys under prefix, ascending
  barrier                 block until all prior writes are durable
  meta-put <key> <value>  store into the metadata namespace
  meta-get <key>          fetch from the metadata namespace
  exit                    quit`)
}
