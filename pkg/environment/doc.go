// Package environment propagates the application environment (development,
// staging, production or any custom name) through context.Context.
//
// The relay worker runs with the environment attached to its root context, so
// environment-scoped feature strategies can read it back with FromContext:
//
//	ctx = environment.WithContext(ctx, "production")
//	strategy := feature.NewEnvironmentStrategy([]string{"production"},
//		feature.WithEnvironmentExtractor(environment.FromContext))
//
// Middleware does the same for HTTP handlers.
package environment
