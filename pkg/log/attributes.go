// Standard attribute keys for online learning operations.
//
// Using these keys keeps optimizer, learner and metric logs consistent, so a
// stream can be followed across components by estimator.id and iteration.
// Keys follow a hierarchical naming convention (e.g. "optim.name",
// "training.iteration").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of learner or optimizer.
	// Examples: "FTRLProximal", "FTPL", "LogisticRegression"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific instance.
	// Optimizers generate a UUID at construction time.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "step", "learn_one", "predict_one", "new"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "optim", "linear", "funcmodel", "metrics"
	ComponentKey = "ml.component"
)

// Optimizer state
const (
	// OptimizerKey names the optimizer a learner is driving.
	OptimizerKey = "optim.name"

	// FeatureKey identifies the feature (coordinate) a record refers to.
	FeatureKey = "optim.feature"

	// GradKeysKey is the number of keys in the gradient handed to a step.
	GradKeysKey = "optim.grad_keys"

	// WeightKeysKey is the number of keys held by the weight map after a step.
	WeightKeysKey = "optim.weight_keys"

	// WeightValueKey records the value of a single weight after an update.
	WeightValueKey = "optim.weight"

	// RejectedKeysKey is the number of coordinates a step refused to update.
	RejectedKeysKey = "optim.rejected"
)

// Performance and training metrics
const (
	// LossKey records the loss value of the most recent example.
	LossKey = "metrics.loss"

	// MetricNameKey names a running metric ("MAE", "F1", ...).
	MetricNameKey = "metrics.name"

	// MetricValueKey records a running metric's current value.
	MetricValueKey = "metrics.value"

	// IterationKey records the optimizer's iteration counter.
	IterationKey = "training.iteration"

	// SamplesKey records the number of examples seen so far.
	SamplesKey = "data.samples"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the base learning rate (FTRL alpha).
	LearningRateKey = "hyperparams.learning_rate"

	// SmoothingKey records the FTRL beta smoothing constant.
	SmoothingKey = "hyperparams.beta"

	// L1Key and L2Key record regularization strengths.
	L1Key = "hyperparams.l1"
	L2Key = "hyperparams.l2"

	// EtaKey and GammaKey record the FTPL scale and perturbation deviation.
	EtaKey   = "hyperparams.eta"
	GammaKey = "hyperparams.gamma"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationNew        = "new"
	OperationStep       = "step"
	OperationLearnOne   = "learn_one"
	OperationPredictOne = "predict_one"

	ErrorNonFinite    = "NON_FINITE"
	ErrorInvalidInput = "INVALID_INPUT"
	ErrorEmptyData    = "EMPTY_DATA"
)
