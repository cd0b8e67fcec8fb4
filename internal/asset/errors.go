package asset

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable indicates the upload source (temp file or
	// remote URL) could not be read. Fatal to the call.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnidentifiableMedia indicates content-type detection or image
	// decoding failed for the primary asset.
	ErrUnidentifiableMedia = errors.New("unidentifiable media")
	// ErrNotAnEmbed indicates SaveEmbed was called with a record whose
	// type is not an embed. A definite negative, not a failure.
	ErrNotAnEmbed = errors.New("record is not an embed")
	// ErrNameExhausted indicates collision resolution gave up after the
	// maximum number of attempts.
	ErrNameExhausted = errors.New("file name attempts exhausted")
	// ErrLinkUnavailable indicates a generic remote link yielded no
	// usable data. Recoverable: the caller treats link info as absent.
	ErrLinkUnavailable = errors.New("link data unavailable")
	// ErrProviderUnavailable indicates a provider API or network failure
	// distinct from a credential failure. Absorbed internally by the
	// fetcher, which degrades to generic metadata.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ProviderIdentifierError reports a recognized provider URL that lacks an
// extractable video id. Fatal and user-facing.
type ProviderIdentifierError struct {
	Provider string
}

func (e *ProviderIdentifierError) Error() string {
	return fmt.Sprintf("%s video id not detected", e.Provider)
}

// ProviderCredentialError reports that a provider API rejected the
// configured key. Fatal and user-facing, distinct from a generic
// provider failure.
type ProviderCredentialError struct {
	Provider string
}

func (e *ProviderCredentialError) Error() string {
	return fmt.Sprintf("bad %s API key", e.Provider)
}
