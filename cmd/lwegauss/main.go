// Command lwegauss builds the periodized discrete Gaussian error distribution of an LWE
// instance, samples from it and reports the numerical diagnostics and sample statistics.
// Optionally generates a key pair and renders the distribution as an HTML page.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/tuneinsight/lattigo/v5/utils/sampling"

	"github.com/faler08/LWE-Cryptosystem/core/lwe"
)

func main() {
	beta := flag.Float64("beta", 0.05, "spread of the error distribution")
	q := flag.Uint64("q", 97, "ciphertext modulus")
	t := flag.Uint64("t", 8, "plaintext modulus (0 to disable)")
	n := flag.Int("n", 4, "rows of A and S")
	m := flag.Int("m", 6, "columns of A")
	l := flag.Int("l", 3, "columns of S")
	numTerms := flag.Int("terms", lwe.DefaultNumTerms, "truncation depth of the periodization sum")
	samples := flag.Int("samples", 10000, "number of error samples to draw")
	seedHex := flag.String("seed", "", "optional hex seed, makes the run deterministic")
	paramsFile := flag.String("params", "", "optional JSON parameters file, overrides the parameter flags")
	keygen := flag.Bool("keygen", false, "also generate a key pair")
	htmlPath := flag.String("html", "", "optional output path of an HTML histogram page")
	flag.Parse()

	params, err := loadParameters(*paramsFile, lwe.ParametersLiteral{
		N:        *n,
		M:        *m,
		L:        *l,
		Q:        *q,
		T:        *t,
		Beta:     *beta,
		NumTerms: *numTerms,
	})
	if err != nil {
		log.Fatalf("parameters: %v", err)
	}

	var seed []byte
	if *seedHex != "" {
		if seed, err = hex.DecodeString(*seedHex); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	start := time.Now()
	dist, err := lwe.NewDiscreteGaussian(params.Beta(), params.Q(), params.NumTerms())
	if err != nil {
		log.Fatalf("distribution: %v", err)
	}
	log.Printf("distribution built in %v", time.Since(start))

	d := dist.Diagnostics()
	log.Printf("integration error: max=%.3e total=%.3e (%d evaluations)", d.MaxIntegrationError, d.TotalIntegrationError, d.Evaluations)
	log.Printf("truncation bound: %s", d.TruncationBound.Text('e', 6))

	fmt.Printf("beta=%v q=%d num_terms=%d\n", dist.Beta(), dist.Q(), dist.NumTerms())
	fmt.Printf("mean=%.6f std=%.6f\n", dist.Mean(), dist.StandardDeviation())

	var prng sampling.PRNG
	if prng, err = newPRNG(seed, "errors"); err != nil {
		log.Fatalf("prng: %v", err)
	}

	draws, err := lwe.NewErrorGenerator(dist, prng).ReadNew(*samples)
	if err != nil {
		log.Fatalf("sampling: %v", err)
	}

	freq := lwe.Frequencies(draws, dist.Q())

	if summary, err := lwe.Summarize(draws, dist.Q()); err != nil {
		log.Printf("warn: summary: %v", err)
	} else {
		fmt.Printf("samples: n=%d mean=%.4f std=%.4f median=%.1f min=%.0f max=%.0f\n",
			summary.Count, summary.Mean, summary.StandardDeviation, summary.Median, summary.Min, summary.Max)
		fmt.Printf("total variation to pmf: %.5f\n", lwe.TotalVariation(freq, dist.PMF()))
	}

	if *keygen {
		if err = runKeyGen(params, seed); err != nil {
			log.Fatalf("keygen: %v", err)
		}
	}

	if *htmlPath != "" {
		if err = renderHTML(*htmlPath, dist, freq); err != nil {
			log.Fatalf("render html: %v", err)
		}
		fmt.Println("Histogram page:", *htmlPath)
	}
}

func loadParameters(path string, pl lwe.ParametersLiteral) (params lwe.Parameters, err error) {
	if path == "" {
		return lwe.NewParametersFromLiteral(pl)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return params, err
	}

	err = json.Unmarshal(data, &params)
	return
}

// newPRNG returns a keyed PRNG derived from seed and label, or a secure one if seed is empty.
func newPRNG(seed []byte, label string) (sampling.PRNG, error) {
	if len(seed) == 0 {
		return sampling.NewPRNG()
	}
	return sampling.NewKeyedPRNG(lwe.DeriveKey(seed, label))
}

func runKeyGen(params lwe.Parameters, seed []byte) (err error) {

	var kgen *lwe.KeyGenerator
	if len(seed) == 0 {
		var prng sampling.PRNG
		if prng, err = sampling.NewPRNG(); err != nil {
			return
		}
		kgen, err = lwe.NewKeyGenerator(params, prng)
	} else {
		kgen, err = lwe.NewKeyGeneratorFromSeed(params, seed)
	}
	if err != nil {
		return
	}

	start := time.Now()
	pk, sk, err := kgen.GenKeyPairNew()
	if err != nil {
		return
	}
	log.Printf("key pair generated in %v", time.Since(start))

	fmt.Printf("A: %dx%d  S: %dx%d  P: %dx%d\n", len(pk.A), len(pk.A[0]), len(sk.S), len(sk.S[0]), len(pk.P), len(pk.P[0]))

	if params.T() != 0 {
		msg := make([]uint64, params.T())
		for i := range msg {
			msg[i] = uint64(i)
		}

		decoded, err := lwe.NewDecoder(params).Decode(msg)
		if err != nil {
			return err
		}

		encoded, err := lwe.NewEncoder(params).Encode(decoded)
		if err != nil {
			return err
		}

		fmt.Printf("decode(0..t-1)=%v encode(decode)=%v\n", decoded, encoded)
	}

	return nil
}

func toBarItems(vals []float64) []opts.BarData {
	out := make([]opts.BarData, len(vals))
	for i, v := range vals {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func renderHTML(path string, dist *lwe.DiscreteGaussian, freq []float64) error {

	xLabels := make([]string, dist.Q())
	for k := range xLabels {
		xLabels[k] = fmt.Sprintf("%d", k)
	}

	title := fmt.Sprintf("Discrete Gaussian beta=%v q=%d", dist.Beta(), dist.Q())
	subtitle := fmt.Sprintf("num_terms=%d, mean=%.3f, std=%.3f", dist.NumTerms(), dist.Mean(), dist.StandardDeviation())

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xLabels).
		AddSeries("pmf", toBarItems(dist.PMF())).
		AddSeries("empirical", toBarItems(freq)).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))

	page := components.NewPage()
	page.AddCharts(bar)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return page.Render(f)
}
