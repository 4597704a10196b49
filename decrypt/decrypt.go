// Package decrypt implements the keyed-file decryption collaborator.
//
// Streams delivered with a keyed encryption scheme carry a security token in
// the manifest; the actual AES-CTR key and nonce are recovered by decrypting
// that token with a fixed master key. Full DRM content is out of scope here
// and is handled by an external decrypt+remux step.
package decrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"

	"github.com/tidewave-cli/tidewave/filesystem"
)

// masterKey decrypts the security token embedded in keyed manifests.
const masterKey = "UIlTTEMmmLfGowo/UC60x2H45W6MdGgTRfo/umg4754="

// KeyNonce recovers the AES-CTR key and nonce from a manifest security token.
func KeyNonce(securityToken string) (key, nonce []byte, err error) {
	master, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode master key: %w", err)
	}

	token, err := base64.StdEncoding.DecodeString(securityToken)
	if err != nil {
		return nil, nil, fmt.Errorf("decode security token: %w", err)
	}
	if len(token) < aes.BlockSize+24 {
		return nil, nil, errors.New("security token too short")
	}

	iv := token[:aes.BlockSize]
	payload := token[aes.BlockSize:]
	if len(payload)%aes.BlockSize != 0 {
		return nil, nil, errors.New("security token payload is not block-aligned")
	}

	block, err := aes.NewCipher(master)
	if err != nil {
		return nil, nil, err
	}

	plain := make([]byte, len(payload))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, payload)

	return plain[:16], plain[16:24], nil
}

// File decrypts a downloaded file in place using the key material derived
// from the manifest's key id.
func File(path, keyID string) error {
	key, nonce, err := KeyNonce(keyID)
	if err != nil {
		return err
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return fmt.Errorf("read encrypted file: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}

	// CTR counter: 8-byte nonce followed by a zeroed 8-byte block counter.
	iv := make([]byte, aes.BlockSize)
	copy(iv, nonce)

	plain := make([]byte, len(data))
	cipher.NewCTR(block, iv).XORKeyStream(plain, data)

	return filesystem.API().WriteFile(path, plain, 0644)
}

// Remux invokes the external decrypt+remux step for DRM content: mp4decrypt
// strips the content protection with the user-supplied key, then ffmpeg
// rewrites the container.
func Remux(input, output, key string) error {
	if _, err := exec.LookPath("mp4decrypt"); err != nil {
		return errors.New("mp4decrypt not found in PATH; it is required for protected content")
	}

	intermediate := input + ".dec"
	if out, err := exec.Command("mp4decrypt", "--key", key, input, intermediate).CombinedOutput(); err != nil {
		return fmt.Errorf("mp4decrypt: %v: %s", err, out)
	}

	if out, err := exec.Command("ffmpeg", "-y", "-i", intermediate, "-c", "copy", output).CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg remux: %v: %s", err, out)
	}

	return filesystem.API().Remove(intermediate)
}
