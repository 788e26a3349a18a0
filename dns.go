package main

import (
	"context"
	"fmt"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

func (s *server) runDNS(ctx context.Context, network string) error {
	addr := s.cfg.DNSUDPListen
	if network == "tcp" {
		addr = s.cfg.DNSTCPListen
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", s.handleDNS)

	dnsServer := &dns.Server{Addr: addr, Net: network, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = dnsServer.ShutdownContext(context.Background())
	}()

	if err := dnsServer.ListenAndServe(); err != nil {
		return fmt.Errorf("dns/%s listen: %w", network, err)
	}
	return nil
}

func (s *server) handleDNS(w dns.ResponseWriter, req *dns.Msg) {
	resp := s.resolveDNS(req)
	_ = w.WriteMsg(resp)
}

func (s *server) zoneFQDN() string {
	return normalizeName(s.cfg.ParentDomain)
}

// resolveDNS answers authoritatively for the parent zone from the zone
// service state. Names outside the zone are refused.
func (s *server) resolveDNS(req *dns.Msg) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Authoritative = true

	zone := s.zoneFQDN()

	for _, q := range req.Question {
		name := normalizeName(q.Name)
		if !dns.IsSubDomain(zone, name) {
			continue
		}

		switch q.Qtype {
		case dns.TypeSOA:
			if name == zone {
				resp.Answer = append(resp.Answer, s.soaRR())
			}
		case dns.TypeNS:
			if name == zone {
				for _, ns := range s.cfg.NameServers {
					resp.Answer = append(resp.Answer, &dns.NS{
						Hdr: dns.RR_Header{Name: zone, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: s.cfg.DefaultTTL},
						Ns:  normalizeName(ns),
					})
				}
				continue
			}
			for _, rs := range s.zone.setsFor(name, "NS") {
				resp.Answer = append(resp.Answer, materializeRRs(rs)...)
			}
		default:
			answered := false
			for _, rs := range s.zone.setsAtName(name) {
				if q.Qtype != dns.TypeANY && dns.StringToType[rs.Type] != q.Qtype {
					continue
				}
				rrs := materializeRRs(rs)
				if len(rrs) > 0 {
					answered = true
					resp.Answer = append(resp.Answer, rrs...)
				}
			}
			if !answered && q.Qtype != dns.TypeCNAME {
				for _, rs := range s.zone.setsFor(name, "CNAME") {
					resp.Answer = append(resp.Answer, materializeRRs(rs)...)
				}
			}
		}
	}

	if len(resp.Answer) == 0 {
		firstQ := "."
		if len(req.Question) > 0 {
			firstQ = normalizeName(req.Question[0].Name)
		}

		if dns.IsSubDomain(zone, firstQ) {
			if s.zone.hasName(firstQ) || firstQ == zone {
				resp.Rcode = dns.RcodeSuccess
			} else {
				resp.Rcode = dns.RcodeNameError
			}
			resp.Ns = append(resp.Ns, s.soaRR())
		} else {
			resp.Rcode = dns.RcodeRefused
		}
	}

	return resp
}

func (s *server) soaRR() dns.RR {
	zone := s.zoneFQDN()
	mname := zone
	if len(s.cfg.NameServers) > 0 {
		mname = normalizeName(s.cfg.NameServers[0])
	}

	return &dns.SOA{
		Hdr:     dns.RR_Header{Name: zone, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: s.cfg.DefaultTTL},
		Ns:      mname,
		Mbox:    "hostmaster." + zone,
		Serial:  uint32(s.start.Unix()),
		Refresh: 7200,
		Retry:   900,
		Expire:  1209600,
		Minttl:  s.cfg.DefaultTTL,
	}
}

// materializeRRs renders one stored record set into wire RRs via zone-file
// syntax. TXT and SPF data gets quoted; malformed values are skipped.
func materializeRRs(rs recordSet) []dns.RR {
	out := make([]dns.RR, 0, len(rs.Data))
	for _, value := range rs.Data {
		text := fmt.Sprintf("%s %d IN %s %s", rs.Name, rs.TTL, rs.Type, value)
		if rs.Type == "TXT" || rs.Type == "SPF" {
			text = fmt.Sprintf("%s %d IN %s %q", rs.Name, rs.TTL, rs.Type, value)
		}

		rr, err := dns.NewRR(text)
		if err != nil || rr == nil {
			logrus.WithFields(logrus.Fields{"name": rs.Name, "type": rs.Type, "error": err}).Debug("skipping unparsable record value")
			continue
		}
		out = append(out, rr)
	}
	return out
}
