package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dmitrijs2005/vaultblob/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage")

// Unlock asks for the vault password and derives the master key. The
// first unlock of a new vault sets the password.
func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	key, err := a.vault.Unlock(ctx, password)
	if err != nil {
		if errors.Is(err, common.ErrAccessDenied) {
			return errors.New("wrong password")
		}
		return err
	}
	defer common.WipeByteArray(key)

	a.keyring.unlock(key)
	fmt.Fprintln(a.out, "Vault unlocked")
	return nil
}

// pathArg returns args[0] or asks for a path.
func (a *App) pathArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	path, err := getSimpleText(a.reader, "Enter file path", a.out)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("%w: put <path>", errUsage)
	}
	return path, nil
}

func (a *App) Put(ctx context.Context, args []string) error {
	if !a.isUnlocked() {
		return ErrVaultLocked
	}
	path, err := a.pathArg(args)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rec, err := a.library.Put(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Stored %s as blob %s in archive %s\n", rec.Name, rec.BlobID, rec.ArchiveID)
	return nil
}

func (a *App) Get(ctx context.Context, args []string) error {
	if !a.isUnlocked() {
		return ErrVaultLocked
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: get <blobId> <out>", errUsage)
	}

	rec, data, err := a.library.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %s (%d bytes) to %s\n", rec.Name, len(data), args[1])
	return nil
}

func (a *App) List(ctx context.Context) error {
	recs, err := a.library.List(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No files")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tSIZE\tCREATED")
	for _, r := range recs {
		kind := "blob"
		if r.IsFileData() {
			kind = "filedata"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.BlobID, kind, r.Name, r.Size, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (a *App) NativePut(ctx context.Context, args []string) error {
	if !a.isUnlocked() {
		return ErrVaultLocked
	}
	path, err := a.pathArg(args)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}

	rec, err := a.library.PutNative(ctx, abs, filepath.Base(abs), info.Size())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s as file data %s\n", rec.Name, rec.BlobID)
	return nil
}

// NativeGet downloads a file data record through the bridge. With an out
// path the decrypted file is copied there.
func (a *App) NativeGet(ctx context.Context, args []string) error {
	if !a.isUnlocked() {
		return ErrVaultLocked
	}
	if len(args) < 1 {
		return fmt.Errorf("%w: nget <fileDataId> [out]", errUsage)
	}

	ref, err := a.library.GetNative(ctx, args[0])
	if err != nil {
		return err
	}
	if len(args) < 2 {
		fmt.Fprintf(a.out, "Decrypted %s to %s\n", ref.Name, ref.Location)
		return nil
	}

	if err := copyFile(ref.Location, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %s to %s\n", ref.Name, args[1])
	return nil
}

// Forget removes a record from the local list. The stored blob is kept.
func (a *App) Forget(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: forget <blobId>", errUsage)
	}
	if err := a.library.Forget(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Forgot %s\n", args[0])
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	if err := a.library.ClearTemp(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Temporary files removed")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
