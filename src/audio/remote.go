package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/hypebeast/go-osc/osc"
)

const oscPrefix = "/granular/"

var oscCommands = []string{"set", "cv", "record", "load", "input", "save"}

// ServeOSC receives OSC messages on addr (UDP) and forwards them to
// commandCh as text commands until ctx is done.
//
//	/granular/set <name> <value>
//	/granular/cv <name> <volts>
//	/granular/record <0|1>
//	/granular/load <path>
//	/granular/input <path|none>
//	/granular/save <path>
func ServeOSC(ctx context.Context, addr string, commandCh chan<- []string) error {
	d, err := newOSCDispatcher(ctx, commandCh)
	if err != nil {
		return err
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listening OSC on %s: %w", addr, err)
	}
	log.Printf("OSC listening on %s\n", conn.LocalAddr())
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	err = serveOSC(ctx, conn, d)
	log.Println("ServeOSC() ended.")
	return err
}

func newOSCDispatcher(ctx context.Context, commandCh chan<- []string) (*osc.StandardDispatcher, error) {
	d := osc.NewStandardDispatcher()
	for _, name := range oscCommands {
		err := d.AddMsgHandler(oscPrefix+name, func(msg *osc.Message) {
			command, err := oscCommand(msg)
			if err != nil {
				log.Printf("OSC %s: %v", msg.Address, err)
				return
			}
			select {
			case commandCh <- command:
			case <-ctx.Done():
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// serveOSC dispatches packets one at a time on the calling goroutine, so
// commands from one sender reach CommandCh in the order they were sent.
// osc.Server.Serve would hand each packet to its own goroutine.
func serveOSC(ctx context.Context, conn net.PacketConn, d osc.Dispatcher) error {
	server := &osc.Server{Dispatcher: d}
	for {
		packet, err := server.ReceivePacket(conn)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) {
				return err
			}
			log.Printf("OSC: dropping malformed packet: %v", err)
			continue
		}
		d.Dispatch(packet)
	}
}

// oscCommand translates a message into the command form CommandCh takes.
func oscCommand(msg *osc.Message) ([]string, error) {
	name := strings.TrimPrefix(msg.Address, oscPrefix)
	args := msg.Arguments
	switch name {
	case "set", "cv":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: %s takes a name and a value", ErrInvalidCommand, name)
		}
		key, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: name must be a string", ErrInvalidCommand)
		}
		value, err := oscValue(args[1])
		if err != nil {
			return nil, err
		}
		return []string{name, key, value}, nil
	case "record":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: record takes one argument", ErrInvalidCommand)
		}
		value, err := oscValue(args[0])
		if err != nil {
			return nil, err
		}
		on, err := strconv.ParseFloat(value, 64)
		if err != nil {
			b, berr := strconv.ParseBool(value)
			if berr != nil {
				return nil, fmt.Errorf("%w: record %q", ErrInvalidCommand, value)
			}
			on = 0
			if b {
				on = 1
			}
		}
		if on > 0 {
			return []string{"record", "on"}, nil
		}
		return []string{"record", "off"}, nil
	case "load", "input", "save":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %s takes a path", ErrInvalidCommand, name)
		}
		path, ok := args[0].(string)
		if !ok || path == "" {
			return nil, fmt.Errorf("%w: path must be a string", ErrInvalidCommand)
		}
		return []string{name, path}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, msg.Address)
}

func oscValue(arg interface{}) (string, error) {
	switch v := arg.(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		return v, nil
	}
	return "", fmt.Errorf("%w: unsupported argument %T", ErrInvalidCommand, arg)
}
