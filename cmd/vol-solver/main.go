package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/contactkeval/vol-solver/internal/data"
	"github.com/contactkeval/vol-solver/internal/engine"
	"github.com/contactkeval/vol-solver/internal/report"
	"github.com/contactkeval/vol-solver/internal/vol"
)

func main() {
	configPath := flag.String("config", "", "path to JSON or YAML config (chain mode)")
	quotesCSV := flag.String("quotes", "", "path to local quotes CSV, overrides API provider")
	rest := flag.Bool("rest", false, "run as REST server (accept solve requests)")
	port := flag.String("port", ":8080", "REST server listen address")

	// one-shot mode
	price := flag.Float64("price", 0, "observed option price (one-shot mode)")
	spot := flag.Float64("spot", 0, "underlying spot price")
	strike := flag.Float64("strike", 0, "option strike")
	years := flag.Float64("t", 0, "time to expiry in years")
	rate := flag.Float64("rate", 0, "risk-free rate, annualized")
	optType := flag.String("type", "call", "option type: call or put")
	flag.Parse()

	if *rest {
		runREST(*port)
		return
	}

	// one-shot: invert a single price straight from flags
	if *price > 0 {
		iv, err := vol.ImpliedVolatility(*price, *spot, *strike, *years, *rate, *optType != "put")
		if err != nil {
			log.Fatalf("solve failed: %v", err)
		}
		fmt.Printf("%.6f\n", iv)
		return
	}

	if *configPath == "" {
		log.Fatalf("need -config, -price or -rest; see -help")
	}

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// choose provider
	var prov data.Provider
	if *quotesCSV != "" {
		prov = data.NewCSVDataProvider(*quotesCSV, nil)
		log.Printf("[info] local CSV provider enabled")
	} else if apiKey := os.Getenv("MASSIVE_API_KEY"); apiKey != "" {
		prov = data.NewMassiveDataProvider(apiKey)
		log.Printf("[info] massive provider enabled")
	} else {
		prov = data.NewSyntheticProvider(100, cfg.Rate, 0.2, time.Now().UnixNano())
		log.Printf("[info] synthetic provider enabled")
	}

	eng := engine.NewEngine(cfg, prov)

	start := time.Now()
	res, err := eng.Run()
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	if err := os.MkdirAll(cfg.ReportDir, 0755); err != nil {
		log.Printf("[warn] could not create report dir %s: %v", cfg.ReportDir, err)
	}
	_ = report.WriteJSON(res, cfg.ReportDir)
	_ = report.WriteCSV(res.Rows, cfg.ReportDir)
	log.Printf("[done] finished in %v, solved %d of %d quotes, reports in %s",
		time.Since(start), res.Solved, len(res.Rows), cfg.ReportDir)
}

// solveRequest is the /solve request body.
type solveRequest struct {
	Price  float64 `json:"price"`
	Spot   float64 `json:"spot"`
	Strike float64 `json:"strike"`
	Years  float64 `json:"t"`
	Rate   float64 `json:"rate"`
	IsCall bool    `json:"is_call"`
}

type solveResponse struct {
	IV          float64 `json:"iv"`
	Iterations  int     `json:"iterations"`
	ConvergedBy string  `json:"converged_by"`
}

func runREST(port string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/solve", func(w http.ResponseWriter, r *http.Request) {
		var req solveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := vol.Solve(vol.DefaultConfig(), req.Price, req.Spot, req.Strike, req.Years, req.Rate, req.IsCall)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(solveResponse{
			IV:          res.Vol,
			Iterations:  res.Iterations,
			ConvergedBy: res.ConvergedBy.String(),
		})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	log.Printf("[info] starting REST server on %s", port)
	log.Fatal(http.ListenAndServe(port, mux))
}
