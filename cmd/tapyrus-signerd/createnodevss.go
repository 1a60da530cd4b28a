package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/azuchi/tapyrus-signer/internal/errs"
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wif"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// newCreateNodeVSSCmd implements the createnodevss setup surface spec.md
// §6 describes: given this node's WIF private key and every other
// federation member's compressed public key, emit one Feldman VSS share
// per recipient, the out-of-band bootstrap that produces each node's
// long-lived private_shared_key. Grounded on
// original_source/src/cli/setup/create_node_vss.rs: parse private_key
// before public_key (so a bad private key reports InvalidArgs even when
// a public key is also bad, matching the original's error-order test),
// sort recipients ascending by compressed encoding, one output line per
// recipient in that order.
func newCreateNodeVSSCmd() *cobra.Command {
	var privateKeyWIF string
	var publicKeys []string
	var threshold int

	cmd := &cobra.Command{
		Use:   "createnodevss",
		Short: "Generate this node's long-term VSS shares for the federation",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runCreateNodeVSS(privateKeyWIF, publicKeys, threshold)
			if err != nil {
				return cliError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&privateKeyWIF, "private_key", "", "this signer's private key, WIF-encoded")
	cmd.Flags().StringArrayVar(&publicKeys, "public_key", nil, "compressed public key of another signer (repeatable)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "VSS threshold; 0 defaults to the number of recipients, matching the original CLI's unparameterised split")
	_ = cmd.MarkFlagRequired("private_key")
	_ = cmd.MarkFlagRequired("public_key")

	return cmd
}

// runCreateNodeVSS is the pure implementation behind the createnodevss
// subcommand, factored out for direct unit testing without a cobra
// harness.
func runCreateNodeVSS(privateKeyWIF string, publicKeyHexes []string, threshold int) (string, error) {
	secret, _, err := wif.Decode(privateKeyWIF)
	if err != nil {
		return "", errs.InvalidArgsf("private_key", "%v", err)
	}
	if len(publicKeyHexes) == 0 {
		return "", errs.InvalidArgsf("public_key", "at least one recipient is required")
	}

	recipients := make([]wire.SignerID, len(publicKeyHexes))
	for i, h := range publicKeyHexes {
		b, err := hex.DecodeString(h)
		if err != nil {
			return "", errs.Wrap(errs.ErrInvalidKey, "public_key")
		}
		id, err := wire.NewSignerID(b)
		if err != nil {
			return "", errs.Wrap(errs.ErrInvalidKey, "public_key")
		}
		recipients[i] = id
	}
	recipients = wire.SortSignerIDs(recipients)

	n := len(recipients)
	t := threshold
	if t == 0 {
		t = n
	}
	commitments, shares, err := curve.Share(secret, n, t, nil)
	if err != nil {
		return "", fmt.Errorf("createnodevss: generating shares: %w", err)
	}

	type line struct {
		pubkey wire.SignerID
		blob   string
	}
	lines := make([]line, n)
	for j, recipient := range recipients {
		vss := wire.VSS{Commitments: commitments, Share: shares[j]}
		blob, err := wire.EncodeVSS(vss)
		if err != nil {
			return "", fmt.Errorf("createnodevss: encoding vss for %s: %w", recipient, err)
		}
		lines[j] = line{pubkey: recipient, blob: hex.EncodeToString(blob)}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].pubkey.Compare(lines[j].pubkey) < 0 })

	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l.pubkey.String() + ":" + l.blob
	}
	return out, nil
}

// cliError renders err as the stable error tag spec.md §6 promises:
// "InvalidKey" or "InvalidArgs(\"<field>\")", the CLI-facing counterpart
// of the original Rust Error enum's Display impl.
func cliError(err error) error {
	var fieldErr *errs.FieldError
	if errors.As(err, &fieldErr) {
		return fmt.Errorf("InvalidArgs(%q)", fieldErr.Field)
	}
	if errors.Is(err, errs.ErrInvalidKey) {
		return errors.New("InvalidKey")
	}
	return err
}
