// Package log provides secure logging on top of the standard slog package.
//
// The SecureHandler masks private key material before it reaches any output:
//   - RSA private components logged under their usual names (d, p, q, phi)
//   - attributes whose key mentions private, secret, prime or passphrase
//   - string values that contain a PEM private key block
//
// Public values such as the modulus, the public exponent and key
// fingerprints pass through unchanged.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Info("key generated", "key_id", id, "d", key.D) // d is masked
//	slog.SetDefault(logger)
//
// Callback bridges a logger into the model.LogFunc callback that the chunk
// codec and pixel pipeline emit their per-chunk messages through.
package log
