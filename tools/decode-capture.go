//go:build ignore

// Decode-capture decrypts a hex dump of soundbar control traffic.
//
// Feed it the frame hex that LGBAR_LOG_LEVEL=debug logs emit, or hex
// extracted from a packet capture. Each input line may contain one or
// more concatenated frames; the tool prints the decoded JSON messages.
//
// Usage: go run tools/decode-capture.go <hexdump-file>
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/tmholter/lgbar/internal/protocol"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: decode-capture <hexdump-file>")
		fmt.Println("Each line holds hex-encoded frames as logged with LGBAR_LOG_LEVEL=debug")
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Printf("Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	codec := protocol.NewCodec()
	decoder := protocol.NewDecoder()
	lineNum := 0
	decoded := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.ReplaceAll(line, " ", "")

		raw, err := hex.DecodeString(line)
		if err != nil {
			fmt.Printf("line %d: bad hex: %v\n", lineNum, err)
			continue
		}

		payloads, err := decoder.Feed(raw)
		if err != nil {
			fmt.Printf("line %d: framing error: %v\n", lineNum, err)
			decoder = protocol.NewDecoder()
			continue
		}

		for _, payload := range payloads {
			msg, err := codec.DecodeMessage(payload)
			if err != nil {
				fmt.Printf("line %d: undecodable payload (%d bytes): %v\n", lineNum, len(payload), err)
				continue
			}
			decoded++
			if msg.Cmd != "" {
				fmt.Printf("%-4s %-22s %v\n", msg.Cmd, msg.Msg, msg.Data)
			} else {
				fmt.Printf("resp %-22s %v\n", msg.Msg, msg.Data)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	if rem := decoder.Buffered(); rem > 0 {
		fmt.Printf("warning: %d trailing bytes do not form a complete frame\n", rem)
	}
	fmt.Printf("\nDecoded %d message(s)\n", decoded)
}
