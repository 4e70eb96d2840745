/*
 * Copyright (c) 2020 Joseph Saylor <doug@saylorsolutions.com>
 * Copyright (c) 2023 Lorenzo Delgado <lnsdev@proton.me>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sshclient

import (
	"fmt"
	"io"
	"os"
)

// SftpWriteData uploads data to remotePath over the cached SFTP subsystem
// client.
func (s *Session) SftpWriteData(data []byte, remotePath string) error {
	client, err := s.SFTPClient()
	if err != nil {
		return fmt.Errorf("acquiring sftp client: %w", err)
	}

	f, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("creating remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing remote file %s: %w", remotePath, err)
	}
	return f.Chmod(DefaultSCPMode)
}

// SftpWrite uploads the contents of localPath to remotePath over SFTP.
func (s *Session) SftpWrite(localPath, remotePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading local file %s: %w", localPath, err)
	}
	return s.SftpWriteData(data, remotePath)
}

// SftpRead downloads remotePath over SFTP. With a non-empty localPath it
// writes the file there and returns "Ok"; otherwise it returns the file's
// contents.
func (s *Session) SftpRead(remotePath, localPath string) (string, error) {
	client, err := s.SFTPClient()
	if err != nil {
		return "", fmt.Errorf("acquiring sftp client: %w", err)
	}

	f, err := client.Open(remotePath)
	if err != nil {
		return "", fmt.Errorf("opening remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("reading remote file %s: %w", remotePath, err)
	}

	if localPath != "" {
		if err := os.WriteFile(localPath, data, DefaultSCPMode); err != nil {
			return "", fmt.Errorf("writing local file %s: %w", localPath, err)
		}
		return "Ok", nil
	}
	return string(data), nil
}

// SftpList lists the names of entries in the remote directory path.
func (s *Session) SftpList(path string) ([]string, error) {
	client, err := s.SFTPClient()
	if err != nil {
		return nil, fmt.Errorf("acquiring sftp client: %w", err)
	}

	entries, err := client.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("listing remote directory %s: %w", path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// RemoteCopy streams sourcePath from s directly to destPath on dest,
// without round-tripping the data through the local machine.
func (s *Session) RemoteCopy(sourcePath string, dest *Session, destPath string) error {
	srcClient, err := s.SFTPClient()
	if err != nil {
		return fmt.Errorf("acquiring source sftp client: %w", err)
	}
	dstClient, err := dest.SFTPClient()
	if err != nil {
		return fmt.Errorf("acquiring destination sftp client: %w", err)
	}

	src, err := srcClient.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("opening source file %s: %w", sourcePath, err)
	}
	defer src.Close()

	dst, err := dstClient.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating destination file %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying %s to %s: %w", sourcePath, destPath, err)
	}
	return dst.Chmod(DefaultSCPMode)
}
