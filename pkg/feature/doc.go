// Package feature implements named on/off flags with optional rollout strategies.
//
// hookrelay uses it as one of the runtime settings sources: every flag is
// exposed as a boolean setting named after the flag, so a flag called
// "workers_enabled" pauses and resumes delivery.
//
// A flag is evaluated in two steps. A flag with Enabled == false is off. An
// enabled flag without a Strategy is on; otherwise its Strategy decides.
//
// # Strategies
//
//   - NewAlwaysOnStrategy, NewAlwaysOffStrategy: constant results
//   - NewEnvironmentStrategy: on only in the listed environments, read from
//     the context with an EnvironmentExtractor such as environment.FromContext
//   - NewAndStrategy, NewOrStrategy: combine other strategies
//
// # Usage
//
//	provider, err := feature.NewMemoryProvider(&feature.Flag{
//		Name:     "workers_enabled",
//		Enabled:  true,
//		Strategy: feature.NewEnvironmentStrategy([]string{"production"},
//			feature.WithEnvironmentExtractor(environment.FromContext)),
//	})
//	if err != nil {
//		return err
//	}
//
//	// pause delivery
//	_ = provider.SetEnabled(ctx, "workers_enabled", false)
//
// # Errors
//
// ErrFlagNotFound, ErrInvalidFlag and ErrInvalidStrategy are returned
// wrapped with errors.Join where extra detail helps; compare with errors.Is.
package feature
