// Package onlinelearn provides per-coordinate online optimizers for sparse,
// string-keyed models in Go, together with the small learners and metrics
// needed to run them over a data stream one sample at a time.
//
// Two optimizers are implemented, both behind the model.Optimizer contract:
//
//   - FTRL-Proximal: follow-the-regularized-leader with adaptive per-coordinate
//     learning rates and L1/L2 regularization. L1 produces exact zeros.
//   - FTPL: follow-the-perturbed-leader, minimizing cumulative loss plus a
//     Gaussian perturbation drawn from a per-instance random source.
//
// Weights, features and gradients are plain map[string]float64 values. A key
// absent from the gradient is left untouched by a step, so models grow as new
// features appear in the stream.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/onlinelearn/core/model"
//	    "github.com/YuminosukeSato/onlinelearn/linear"
//	    "github.com/YuminosukeSato/onlinelearn/optim"
//	)
//
//	func main() {
//	    opt, err := optim.NewFTRLProximal(optim.WithFTRLAlpha(0.1))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    clf, err := linear.NewLogisticRegression(opt)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    x := model.Features{"clicks": 3, "age": 0.4}
//	    fmt.Println(clf.PredictProbaOne(x))
//	    if err := clf.LearnOne(x, true); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Packages
//
//   - optim: FTRLProximal and FTPL
//   - core/model: sparse Features/Weights/Gradient and the learner contracts
//   - funcmodel: a one-parameter sinusoid regressor for optimizer experiments
//   - linear: online linear and logistic regression over any optimizer
//   - preprocessing: an online StandardScaler
//   - metrics: running MAE, MSE, RMSE, Accuracy and F1
//   - core/parallel: runs independent learners side by side
//   - pkg/config: YAML configuration with ONLINELEARN_* overrides
//   - pkg/errors, pkg/log: structured errors, warnings and logging
//
// The onlinedemo command (cmd/onlinedemo) streams synthetic data through
// these pieces with progressive validation: predict, score, then learn.
//
// # Concurrency
//
// An optimizer instance belongs to one stream and must not be stepped from
// several goroutines at once. Independent instances share no state.
package onlinelearn
