// Package core contains the shared contracts of the bot toolkit: configuration
// and its providers, the error envelope, and the logger and metrics seams.
// Feature packages depend on core; core must not depend on them.
package core
