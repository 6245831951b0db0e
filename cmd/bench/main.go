// bench - be2json throughput runner
//
// Converts synthetic Bencode corpora and reports, per case:
//   - Input and output size
//   - Strings rendered as hex
//   - Throughput
//
// Output: CSV and markdown summary
package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"

	"github.com/Neumenon/be2json/be2json"
)

type CaseResult struct {
	Name       string
	InBytes    int64
	OutBytes   int64
	HexStrings int
	MaxDepth   int
	Iterations int
	PerOp      time.Duration
	MBps       float64
}

type corpus struct {
	name string
	data []byte
}

func main() {
	app := kingpin.New("bench", "be2json throughput runner.")
	iterations := app.Flag("iterations", "Conversions per case.").Default("20").Int()
	csvPath := app.Flag("csv", "CSV output file, empty to skip.").Default("bench_results.csv").String()
	mdPath := app.Flag("markdown", "Markdown output file, empty to skip.").Default("BENCH.md").String()
	seed := app.Flag("seed", "Corpus generator seed.").Default("1").Int64()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	fmt.Fprintf(os.Stderr, "be2json Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "========================\n")

	corpora := generate(rand.New(rand.NewSource(*seed)))
	fmt.Fprintf(os.Stderr, "Corpus: %d cases, %d iterations each\n\n", len(corpora), *iterations)

	var results []CaseResult
	for _, c := range corpora {
		r, err := measure(c, *iterations)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", c.name, err)
			continue
		}
		results = append(results, r)
	}

	if *csvPath != "" {
		if f, err := os.Create(*csvPath); err == nil {
			writeCSV(f, results)
			f.Close()
			fmt.Fprintf(os.Stderr, "CSV written to: %s\n", *csvPath)
		}
	}
	if *mdPath != "" {
		if f, err := os.Create(*mdPath); err == nil {
			writeMarkdown(f, results, *iterations)
			f.Close()
			fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", *mdPath)
		}
	}

	var totalIn, totalOut int64
	var totalTime time.Duration
	for _, r := range results {
		totalIn += r.InBytes
		totalOut += r.OutBytes
		totalTime += r.PerOp
	}
	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:      %d\n", len(results))
	fmt.Printf("Input:      %s\n", humanize.Bytes(uint64(totalIn)))
	fmt.Printf("Output:     %s\n", humanize.Bytes(uint64(totalOut)))
	if totalTime > 0 {
		fmt.Printf("Throughput: %s/s\n", humanize.Bytes(uint64(float64(totalIn)/totalTime.Seconds())))
	}
}

func measure(c corpus, iterations int) (CaseResult, error) {
	var stats be2json.Stats
	start := time.Now()
	for i := 0; i < iterations; i++ {
		conv := be2json.NewConverter(bytes.NewReader(c.data), io.Discard, be2json.Options{MaxDepth: 1 << 16})
		if err := conv.Convert(); err != nil {
			return CaseResult{}, err
		}
		stats = conv.Stats()
	}
	elapsed := time.Since(start)
	perOp := elapsed / time.Duration(max(1, iterations))

	mbps := 0.0
	if perOp > 0 {
		mbps = float64(len(c.data)) / perOp.Seconds() / 1e6
	}
	return CaseResult{
		Name:       c.name,
		InBytes:    stats.BytesRead,
		OutBytes:   stats.BytesWritten,
		HexStrings: stats.HexStrings,
		MaxDepth:   stats.MaxDepth,
		Iterations: iterations,
		PerOp:      perOp,
		MBps:       mbps,
	}, nil
}

// ============================================================
// Corpus generation
// ============================================================

func generate(r *rand.Rand) []corpus {
	return []corpus{
		{"torrent-single", torrent(r, 1, 2000)},
		{"torrent-multi", torrent(r, 500, 4000)},
		{"wide-list-ints", wideList(100000)},
		{"wide-dict-text", wideDict(r, 20000)},
		{"deep-lists", deep(10000)},
		{"binary-blobs", blobs(r, 64, 64<<10)},
		{"long-text", longText(4 << 20)},
	}
}

func writeString(b *bytes.Buffer, s []byte) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.Write(s)
}

// torrent builds a metainfo dictionary with the given number of files and
// SHA-1 piece hashes.
func torrent(r *rand.Rand, files, pieces int) []byte {
	var b bytes.Buffer
	b.WriteString("d8:announce")
	writeString(&b, []byte("http://tracker.example.org:6969/announce"))
	b.WriteString("13:announce-listll")
	writeString(&b, []byte("udp://tracker.example.net:1337"))
	b.WriteString("ee7:comment")
	writeString(&b, []byte("synthetic corpus"))
	b.WriteString("13:creation datei1700000000e4:infod")
	if files > 1 {
		b.WriteString("5:filesl")
		for i := 0; i < files; i++ {
			fmt.Fprintf(&b, "d6:lengthi%de4:pathl", r.Int63n(1<<32))
			writeString(&b, []byte("dir"+strconv.Itoa(i%7)))
			writeString(&b, []byte("file-"+strconv.Itoa(i)+".dat"))
			b.WriteString("ee")
		}
		b.WriteString("e")
	} else {
		fmt.Fprintf(&b, "6:lengthi%de", r.Int63n(1<<40))
	}
	b.WriteString("4:name")
	writeString(&b, []byte("synthetic"))
	b.WriteString("12:piece lengthi262144e6:pieces")
	hashes := make([]byte, 20*pieces)
	r.Read(hashes)
	writeString(&b, hashes)
	b.WriteString("ee")
	return b.Bytes()
}

func wideList(n int) []byte {
	var b bytes.Buffer
	b.WriteByte('l')
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "i%de", i*7919-n)
	}
	b.WriteByte('e')
	return b.Bytes()
}

func wideDict(r *rand.Rand, n int) []byte {
	words := []string{"alpha", "beta", `quo"ted`, `back\slash`, "ünïcödé", "plain text"}
	var b bytes.Buffer
	b.WriteByte('d')
	for i := 0; i < n; i++ {
		writeString(&b, []byte("key-"+strconv.Itoa(i)))
		writeString(&b, []byte(words[r.Intn(len(words))]))
	}
	b.WriteByte('e')
	return b.Bytes()
}

func deep(depth int) []byte {
	return []byte(strings.Repeat("l", depth) + "i0e" + strings.Repeat("e", depth))
}

func blobs(r *rand.Rand, n, size int) []byte {
	var b bytes.Buffer
	b.WriteByte('l')
	blob := make([]byte, size)
	for i := 0; i < n; i++ {
		r.Read(blob)
		blob[0] = 0xff // never valid UTF-8
		writeString(&b, blob)
	}
	b.WriteByte('e')
	return b.Bytes()
}

func longText(size int) []byte {
	const text = "The quick brown fox jumps over the lazy dog. "
	body := strings.Repeat(text, size/len(text)+1)[:size]
	var b bytes.Buffer
	writeString(&b, []byte(body))
	return b.Bytes()
}

// ============================================================
// Reports
// ============================================================

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,in_bytes,out_bytes,hex_strings,max_depth,iterations,ns_per_op,mb_per_s")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%d,%d,%d,%.1f\n",
			r.Name, r.InBytes, r.OutBytes, r.HexStrings, r.MaxDepth, r.Iterations, r.PerOp.Nanoseconds(), r.MBps)
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, iterations int) {
	fmt.Fprintf(w, "# be2json Benchmark Results\n\n")
	fmt.Fprintf(w, "**Date:** %s  \n", time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintf(w, "**Cases:** %d, %d iterations each  \n\n", len(results), iterations)

	fmt.Fprintf(w, "## Detailed Results\n\n")
	fmt.Fprintf(w, "| Case | Input | Output | Growth | Hex strings | Depth | Time/op | MB/s |\n")
	fmt.Fprintf(w, "|------|-------|--------|--------|-------------|-------|---------|------|\n")
	for _, r := range results {
		growth := 0.0
		if r.InBytes > 0 {
			growth = float64(r.OutBytes-r.InBytes) / float64(r.InBytes) * 100
		}
		fmt.Fprintf(w, "| %s | %s | %s | %+.1f%% | %s | %d | %v | %.1f |\n",
			r.Name, humanize.Bytes(uint64(r.InBytes)), humanize.Bytes(uint64(r.OutBytes)), growth,
			humanize.Comma(int64(r.HexStrings)), r.MaxDepth, r.PerOp.Round(time.Microsecond), r.MBps)
	}

	sorted := make([]CaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MBps > sorted[j].MBps
	})

	fmt.Fprintf(w, "\n## Fastest to Slowest\n\n")
	for i, r := range sorted {
		fmt.Fprintf(w, "%d. %s (%.1f MB/s)\n", i+1, r.Name, r.MBps)
	}

	fmt.Fprintf(w, "\n## Methodology\n\n")
	fmt.Fprintf(w, "- Each case is converted from memory to `io.Discard` with default options (depth limit raised for the deep case).\n")
	fmt.Fprintf(w, "- Growth is the output size relative to the input; hex-wrapped strings double in size.\n")
}
