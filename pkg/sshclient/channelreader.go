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
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// channelPacket is a decoded message read off a raw ssh.Channel: a chunk of
// stdout or stderr data, or notice that the remote side reported an exit
// status. Working against the raw channel (rather than the high-level
// ssh.Session wrapper) is what makes it possible to apply the two distinct
// timing strategies below.
type channelPacket struct {
	stdout     []byte
	stderr     []byte
	exitStatus int
	hasStatus  bool
}

// readChannelPackets pumps the given channel and its out-of-band requests
// into a packet channel until the remote side closes it. Callers own the
// returned channel and must drain it to completion to avoid leaking the
// pump goroutines.
func readChannelPackets(ch ssh.Channel, requests <-chan *ssh.Request) <-chan channelPacket {
	out := make(chan channelPacket, 16)

	go func() {
		defer close(out)
		buf := make([]byte, DefaultBufferSize)
		ebuf := make([]byte, DefaultBufferSize)
		stderr := ch.Stderr()
		done := make(chan struct{})

		go func() {
			defer close(done)
			for {
				n, err := stderr.Read(ebuf)
				if n > 0 {
					data := make([]byte, n)
					copy(data, ebuf[:n])
					out <- channelPacket{stderr: data}
				}
				if err != nil {
					return
				}
			}
		}()

		for {
			n, err := ch.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				out <- channelPacket{stdout: data}
			}
			if err != nil {
				break
			}
		}
		<-done

		for req := range requests {
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
			if req.Type == "exit-status" && len(req.Payload) >= 4 {
				status := int(req.Payload[3]) | int(req.Payload[2])<<8 | int(req.Payload[1])<<16 | int(req.Payload[0])<<24
				out <- channelPacket{exitStatus: status, hasStatus: true}
			}
		}
	}()

	return out
}

// toValidText replaces invalid UTF-8 byte sequences rather than letting
// them abort decoding, matching the spec's "never fatal" decoding rule.
func toValidText(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// drainExec reads a channel opened for a one-shot command to completion.
// There is no idle timeout: the remote side is expected to eventually close
// the channel once the command exits.
func drainExec(ctx context.Context, ch ssh.Channel, requests <-chan *ssh.Request) (Result, error) {
	var stdout, stderr strings.Builder
	status := 0
	packets := readChannelPackets(ch, requests)

	for {
		select {
		case pkt, ok := <-packets:
			if !ok {
				return Result{Stdout: stdout.String(), Stderr: stderr.String(), Status: status}, nil
			}
			if pkt.stdout != nil {
				stdout.WriteString(toValidText(pkt.stdout))
			}
			if pkt.stderr != nil {
				stderr.WriteString(toValidText(pkt.stderr))
			}
			if pkt.hasStatus {
				status = pkt.exitStatus
			}
		case <-ctx.Done():
			return Result{Stdout: stdout.String(), Stderr: stderr.String(), Status: status}, ctx.Err()
		}
	}
}

// drainShell implements the interactive-shell timing contract: wait up to
// shellFirstPacketWait for any output at all (returning an empty Result on
// silence, since the remote may simply have nothing new to say), then once
// output starts, keep draining until shellIdleDrain passes with no new
// packets.
func drainShell(ctx context.Context, ch ssh.Channel, requests <-chan *ssh.Request) (Result, error) {
	var stdout, stderr strings.Builder
	status := 0
	packets := readChannelPackets(ch, requests)

	firstTimer := time.NewTimer(shellFirstPacketWait)
	defer firstTimer.Stop()

	select {
	case pkt, ok := <-packets:
		if !ok {
			return Result{}, nil
		}
		if pkt.stdout != nil {
			stdout.WriteString(toValidText(pkt.stdout))
		}
		if pkt.stderr != nil {
			stderr.WriteString(toValidText(pkt.stderr))
		}
		if pkt.hasStatus {
			status = pkt.exitStatus
		}
	case <-firstTimer.C:
		return Result{}, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	idle := time.NewTimer(shellIdleDrain)
	defer idle.Stop()
	for {
		select {
		case pkt, ok := <-packets:
			if !ok {
				return Result{Stdout: stdout.String(), Stderr: stderr.String(), Status: status}, nil
			}
			if pkt.stdout != nil {
				stdout.WriteString(toValidText(pkt.stdout))
			}
			if pkt.stderr != nil {
				stderr.WriteString(toValidText(pkt.stderr))
			}
			if pkt.hasStatus {
				status = pkt.exitStatus
			}
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(shellIdleDrain)
		case <-idle.C:
			return Result{Stdout: stdout.String(), Stderr: stderr.String(), Status: status}, nil
		case <-ctx.Done():
			return Result{Stdout: stdout.String(), Stderr: stderr.String(), Status: status}, ctx.Err()
		}
	}
}
