package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/xdg-go/javabin"
	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: javabinperf <javabin file>")
	}
	inputFile := os.Args[1]
	data, err := os.ReadFile(inputFile)
	if err != nil {
		log.Fatal(err)
	}
	benchJSON(data)
	benchBSON(data)
	benchNaive(data)
}

func benchJSON(input []byte) {
	dec := javabin.NewDecoder(bytes.NewReader(input))

	start := time.Now()
	for {
		err := dec.DecodeJSON(io.Discard)
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatal(err)
		}
	}
	elapsed := time.Since(start)
	reportResult("javabin json", len(input), elapsed)
}

func benchBSON(input []byte) {
	out := make([]byte, 0, 256)
	dec := javabin.NewDecoder(bytes.NewReader(input))
	w := javabin.NewBSONWriter(out)

	start := time.Now()
	for {
		w.Reset(out[0:0])
		err := dec.Decode(w)
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatal(err)
		}
	}
	elapsed := time.Since(start)
	reportResult("javabin bson", len(input), elapsed)
}

// benchNaive goes through JSON text and a generic map, the way a caller
// without a streaming sink would.
func benchNaive(input []byte) {
	dec := javabin.NewDecoder(bytes.NewReader(input))
	var text bytes.Buffer

	start := time.Now()
	for {
		text.Reset()
		err := dec.DecodeJSON(&text)
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatal(err)
		}
		var m map[string]interface{}
		err = json.Unmarshal(text.Bytes(), &m)
		if err != nil {
			log.Fatal(err)
		}
		buf, err := bson.Marshal(m)
		if err != nil {
			log.Fatal(err)
		}
		_ = buf
	}
	elapsed := time.Since(start)
	reportResult("naive json->bson", len(input), elapsed)
}

func reportResult(label string, size int, elapsed time.Duration) {
	throughput := float64(size) / float64(elapsed.Microseconds())
	fmt.Printf("%16s %.2f MB/s\n", label, throughput)
}
