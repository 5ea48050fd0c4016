// Package passcrypt encrypts login passwords before they leave the client.
//
// The blade-auth token endpoint expects the password as an SM2 ciphertext in
// C1C2C3 order, C1 as an uncompressed point, hex encoded. Because C1 is an
// uncompressed point the encoded ciphertext always starts with "04".
//
// [Encryptor] is the only thing callers depend on; [SM2Encryptor] is the
// shipped implementation and [SM2Decryptor] is its counterpart for test and
// mock servers that hold the private key.
package passcrypt
