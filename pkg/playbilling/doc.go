// Package playbilling verifies Google Play subscriptions.
//
// Client.Verify validates the package name and purchase token, queries the
// Android Publisher subscriptionsv2 endpoint and maps the response into a
// typed Snapshot. The provider payload is decoded once into
// SubscriptionPurchaseV2; nothing outside this package reads raw JSON except
// for the verbatim copy kept in Snapshot.OriginalJSON.
//
// Errors fall into two classes:
//
//   - ErrInvalidInput: the arguments were rejected before any network call.
//   - *VerificationError (errors.Is(err, ErrVerificationFailed)): transport
//     failure, timeout, open circuit, non-2xx status or malformed body.
//
// Each call is bounded by a timeout. Concurrent calls for the same token share
// a single provider round trip, and a circuit breaker short-circuits calls
// after repeated provider failures.
//
// A missing or unrecognised subscription state maps to StateActive unless the
// client is built with WithUnknownStateDefault(StateExpired). Unparseable
// timestamps fall back to the current time. Both fallbacks log a warning.
package playbilling
