// Package obfile implements password-based authenticated encryption of
// files and directories.
//
// # Overview
//
// A passphrase is hashed once (SHA-256) and, together with a fresh random
// salt, fed through scrypt to derive a 256-bit key. File contents are
// sealed with AES-256-GCM, and the result is persisted as a self-describing
// binary container bundling everything decryption needs: ciphertext, salt,
// nonce, authentication tag, and the original filename.
//
// Directories are first packed into a single archive blob (tar, or zip when
// compression is requested) and then run through the same file pipeline.
//
// # Basic Usage
//
//	engine, err := obfile.NewEngine(obfile.DefaultScryptParams())
//	if err != nil {
//	    panic(err)
//	}
//
//	hash := obfile.HashPassphrase([]byte("correct horse battery staple"))
//
//	c, err := engine.Encrypt(plaintext, hash, "notes.txt")
//	if err != nil {
//	    panic(err)
//	}
//
//	blob, _ := c.Marshal()      // bytes of notes.txt.enc
//	c2, _ := obfile.UnmarshalContainer(blob)
//	plaintext, err = engine.Decrypt(c2, hash)
//
// Batch operation over whole file sets, including the directory variants and
// on-disk persistence, goes through Processor, which works against any
// absfs.FileSystem.
//
// # Security Properties
//
// Protected against:
//   - Offline brute force of the passphrase (memory-hard scrypt derivation)
//   - Tampering and corruption (GCM tag verified before any plaintext is
//     released)
//   - Salt or nonce reuse (both are freshly generated per encryption)
//
// Not protected against:
//   - Key compromise while the process is running
//   - Traffic analysis of file sizes (ciphertext length equals plaintext
//     length)
//
// A wrong passphrase and a tampered container are indistinguishable: both
// surface as ErrIntegrity.
package obfile
